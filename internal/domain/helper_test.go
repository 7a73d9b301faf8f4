package domain

import (
	"context"
	"testing"

	"github.com/impact-lab/backend/internal/client"
	"github.com/impact-lab/backend/internal/domain/statistic"
	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/internal/model"
	"github.com/impact-lab/backend/internal/repository"
	"github.com/impact-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

type testDomains struct {
	milestone    *milestoneDomain
	achievement  *achievementDomain
	verification *verificationDomain
	reward       *rewardDomain
	notification *notificationDomain
	user         *userDomain

	userRepo        repository.UserRepository
	achievementRepo repository.AchievementRepository
	rewardRepo      repository.RewardRepository
	emitter         *testutil.MockEmitter
	storage         *testutil.MockStorage
}

// newTestDomains wires every domain on top of ctx. userRepo is injected into
// the reward ledger only, so tests can make the balance credit fail.
func newTestDomains(ctx context.Context, ledgerUserRepo repository.UserRepository) *testDomains {
	userRepo := repository.NewUserRepository()
	milestoneRepo := repository.NewMilestoneRepository()
	achievementRepo := repository.NewAchievementRepository()
	rewardRepo := repository.NewRewardRepository()
	rewardIntentRepo := repository.NewRewardIntentRepository()
	notificationRepo := repository.NewNotificationRepository()

	if ledgerUserRepo == nil {
		ledgerUserRepo = userRepo
	}

	emitter := &testutil.MockEmitter{}
	fileStorage := &testutil.MockStorage{}
	leaderboard := statistic.New(userRepo, &testutil.MockRedisClient{})

	rewardDomain := NewRewardDomain(rewardRepo, rewardIntentRepo, ledgerUserRepo,
		client.NewOffchainPayout(), emitter, leaderboard)
	verificationDomain := NewVerificationDomain(achievementRepo, milestoneRepo, userRepo,
		rewardDomain, emitter)

	return &testDomains{
		milestone:    NewMilestoneDomain(milestoneRepo, userRepo),
		achievement:  NewAchievementDomain(achievementRepo, milestoneRepo, userRepo, verificationDomain, fileStorage),
		verification: verificationDomain,
		reward:       rewardDomain,
		notification: NewNotificationDomain(notificationRepo, nil),
		user:         NewUserDomain(userRepo, leaderboard),

		userRepo:        userRepo,
		achievementRepo: achievementRepo,
		rewardRepo:      rewardRepo,
		emitter:         emitter,
		storage:         fileStorage,
	}
}

// requireBalanceInvariant checks that the balance and the impact score of
// every fixture user equal the sum of their confirmed rewards.
func requireBalanceInvariant(t *testing.T, ctx context.Context, d *testDomains) {
	t.Helper()

	for _, u := range testutil.Users {
		user, err := d.userRepo.GetByID(ctx, u.ID)
		require.NoError(t, err)

		sum, err := d.rewardRepo.SumConfirmedByUserID(ctx, u.ID)
		require.NoError(t, err)

		require.Equal(t, sum, user.TokenBalance, "token balance of %s", u.ID)
		require.Equal(t, sum, user.TotalImpactScore, "impact score of %s", u.ID)
	}
}

// submitAchievement starts milestoneID for userID and submits its evidence.
func submitAchievement(
	t *testing.T, ctx context.Context, d *testDomains, userID, milestoneID string,
) string {
	t.Helper()

	userCtx := testutil.NewMockContextWithUserID(ctx, userID)
	started, err := d.achievement.Start(userCtx, &model.StartMilestoneRequest{MilestoneID: milestoneID})
	require.NoError(t, err)

	_, err = d.achievement.SubmitEvidence(userCtx, &model.SubmitEvidenceRequest{
		AchievementID: started.ID,
		Evidence:      "http://evidence/" + userID,
	})
	require.NoError(t, err)

	return started.ID
}

// approveAchievement submits and approves an achievement, it returns the
// pending reward.
func approveAchievement(
	t *testing.T, ctx context.Context, d *testDomains, userID, milestoneID string,
) *entity.Reward {
	t.Helper()

	achievementID := submitAchievement(t, ctx, d, userID, milestoneID)
	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)
	_, err := d.verification.Decide(adminCtx, &model.DecideRequest{
		AchievementID: achievementID,
		Approve:       true,
	})
	require.NoError(t, err)

	rewards, err := d.rewardRepo.GetList(ctx, repository.RewardFilter{AchievementID: achievementID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, rewards, 1)

	return &rewards[0]
}
