package domain

import (
	"testing"

	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/internal/model"
	"github.com/impact-lab/backend/internal/repository"
	"github.com/impact-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_lifecycle_Approve(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)

	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)

	started, err := d.achievement.Start(userCtx, &model.StartMilestoneRequest{
		MilestoneID: testutil.Milestone1.ID,
	})
	require.NoError(t, err)
	require.Equal(t, string(entity.AchievementInProgress), started.Status)
	require.Equal(t, string(entity.VerificationPending), started.VerificationStatus)
	require.Equal(t, 0, started.Progress)

	submitted, err := d.achievement.SubmitEvidence(userCtx, &model.SubmitEvidenceRequest{
		AchievementID: started.ID,
		Evidence:      "http://evidence",
	})
	require.NoError(t, err)
	require.Equal(t, string(entity.AchievementSubmitted), submitted.Status)
	require.Equal(t, 100, submitted.Progress)
	require.Equal(t, "http://evidence", submitted.Evidence)
	require.NotEmpty(t, submitted.SubmittedAt)

	decided, err := d.verification.Decide(adminCtx, &model.DecideRequest{
		AchievementID: started.ID,
		Approve:       true,
	})
	require.NoError(t, err)
	require.Equal(t, string(entity.AchievementVerified), decided.Status)
	require.Equal(t, string(entity.VerificationVerified), decided.VerificationStatus)
	require.Equal(t, testutil.Admin.ID, decided.VerifierID)
	require.NotEmpty(t, decided.CompletedAt)

	rewards, err := d.rewardRepo.GetList(ctx, repository.RewardFilter{AchievementID: started.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	require.Equal(t, entity.RewardPending, rewards[0].Status)
	require.Equal(t, int64(150), rewards[0].TokenAmount)
	require.Equal(t, entity.DefaultRewardToken, rewards[0].TokenType)
	requireBalanceInvariant(t, ctx, d)

	confirmed, err := d.reward.Confirm(adminCtx, &model.ConfirmRewardRequest{
		RewardID: rewards[0].ID,
		TxHash:   "tx123",
	})
	require.NoError(t, err)
	require.Equal(t, string(entity.RewardConfirmed), confirmed.Status)
	require.Equal(t, "tx123", confirmed.TxHash)

	user, err := d.userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(150), user.TokenBalance)
	require.Equal(t, int64(150), user.TotalImpactScore)
	requireBalanceInvariant(t, ctx, d)

	require.Equal(t, []entity.NotificationType{
		entity.NotificationAchievementVerified,
		entity.NotificationRewardConfirmed,
	}, d.emitter.Types())
}

func Test_lifecycle_Reject(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)

	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)

	started, err := d.achievement.Start(userCtx, &model.StartMilestoneRequest{
		MilestoneID: testutil.Milestone1.ID,
	})
	require.NoError(t, err)

	_, err = d.achievement.SubmitEvidence(userCtx, &model.SubmitEvidenceRequest{
		AchievementID: started.ID,
		Evidence:      "http://evidence",
	})
	require.NoError(t, err)

	decided, err := d.verification.Decide(adminCtx, &model.DecideRequest{
		AchievementID:   started.ID,
		Approve:         false,
		RejectionReason: "insufficient evidence",
	})
	require.NoError(t, err)
	require.Equal(t, string(entity.AchievementInProgress), decided.Status)
	require.Equal(t, string(entity.VerificationRejected), decided.VerificationStatus)
	require.Equal(t, 50, decided.Progress)
	require.Equal(t, "insufficient evidence", decided.RejectionReason)
	require.Empty(t, decided.CompletedAt)

	count, err := d.rewardRepo.Count(ctx, repository.RewardFilter{AchievementID: started.ID})
	require.NoError(t, err)
	require.Zero(t, count)

	user, err := d.userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Zero(t, user.TokenBalance)
	requireBalanceInvariant(t, ctx, d)

	require.Equal(t, []entity.NotificationType{entity.NotificationAchievementRejected}, d.emitter.Types())
	require.Equal(t, started.ID, d.emitter.Notified[0].ActionRef)
}
