package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/internal/model"
	"github.com/impact-lab/backend/internal/repository"
	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

// flakyUserRepository fails the balance credit while fail is set.
type flakyUserRepository struct {
	repository.UserRepository
	fail bool
}

func (r *flakyUserRepository) CreditReward(ctx context.Context, userID string, amount int64) error {
	if r.fail {
		return errors.New("connection reset")
	}

	return r.UserRepository.CreditReward(ctx, userID, amount)
}

func Test_rewardDomain_Confirm_Twice(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)
	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)

	reward := approveAchievement(t, ctx, d, testutil.User1.ID, testutil.Milestone1.ID)

	_, err := d.reward.Confirm(adminCtx, &model.ConfirmRewardRequest{RewardID: reward.ID, TxHash: "tx1"})
	require.NoError(t, err)

	_, err = d.reward.Confirm(adminCtx, &model.ConfirmRewardRequest{RewardID: reward.ID, TxHash: "tx2"})
	require.True(t, errorx.Is(err, errorx.InvalidStateTransition))

	stored, err := d.rewardRepo.GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.Equal(t, "tx1", stored.TxHash.String)

	user, err := d.userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(150), user.TokenBalance)
	requireBalanceInvariant(t, ctx, d)
}

func Test_rewardDomain_Confirm_Invalid(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)
	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)
	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)

	reward := approveAchievement(t, ctx, d, testutil.User1.ID, testutil.Milestone1.ID)

	_, err := d.reward.Confirm(userCtx, &model.ConfirmRewardRequest{RewardID: reward.ID, TxHash: "tx1"})
	require.True(t, errorx.Is(err, errorx.PermissionDenied))

	_, err = d.reward.Confirm(adminCtx, &model.ConfirmRewardRequest{RewardID: reward.ID})
	require.True(t, errorx.Is(err, errorx.BadRequest))

	_, err = d.reward.Confirm(adminCtx, &model.ConfirmRewardRequest{RewardID: "unknown", TxHash: "tx1"})
	require.True(t, errorx.Is(err, errorx.NotFound))

	requireBalanceInvariant(t, ctx, d)
}

func Test_rewardDomain_Confirm_PartialApplication(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	flaky := &flakyUserRepository{UserRepository: repository.NewUserRepository(), fail: true}
	d := newTestDomains(ctx, flaky)
	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)

	reward := approveAchievement(t, ctx, d, testutil.User1.ID, testutil.Milestone1.ID)

	_, err := d.reward.Confirm(adminCtx, &model.ConfirmRewardRequest{RewardID: reward.ID, TxHash: "tx1"})
	require.Error(t, err)
	require.True(t, errorx.Is(err, errorx.PartialApplication))

	var partial *errorx.PartialError
	require.True(t, errors.As(err, &partial))
	require.Equal(t, "reward_confirmed", partial.Completed)
	require.Equal(t, "balance_credit", partial.Pending)
	require.NotEmpty(t, partial.IntentID)

	stored, err := d.rewardRepo.GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RewardConfirmed, stored.Status)

	user, err := d.userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Zero(t, user.TokenBalance)

	// Confirming again cannot credit twice.
	_, err = d.reward.Confirm(adminCtx, &model.ConfirmRewardRequest{RewardID: reward.ID, TxHash: "tx1"})
	require.True(t, errorx.Is(err, errorx.InvalidStateTransition))

	flaky.fail = false
	resp, err := d.reward.Reconcile(adminCtx, &model.ReconcileRewardsRequest{})
	require.NoError(t, err)
	require.Equal(t, []string{reward.ID}, resp.Applied)

	applied, err := d.reward.ReconcileIntents(ctx)
	require.NoError(t, err)
	require.Empty(t, applied)

	user, err = d.userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(150), user.TokenBalance)
	requireBalanceInvariant(t, ctx, d)

	require.Equal(t, []entity.NotificationType{
		entity.NotificationAchievementVerified,
		entity.NotificationRewardConfirmed,
	}, d.emitter.Types())
}

func Test_rewardDomain_DistributeAll(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)
	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)

	// User1 has a wallet, User2 has none so its payout fails.
	r1 := approveAchievement(t, ctx, d, testutil.User1.ID, testutil.Milestone1.ID)
	r2 := approveAchievement(t, ctx, d, testutil.User2.ID, testutil.Milestone1.ID)

	resp, err := d.reward.DistributeAll(adminCtx, &model.DistributeAllRequest{
		RewardIDs: []string{r1.ID, r2.ID, r1.ID, "unknown"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{r1.ID}, resp.Confirmed)
	require.Len(t, resp.Failed, 2)
	require.Equal(t, r2.ID, resp.Failed[0].RewardID)
	require.Equal(t, "payout_failed", resp.Failed[0].Code)
	require.Equal(t, "unknown", resp.Failed[1].RewardID)
	require.Equal(t, "not_found", resp.Failed[1].Code)

	stored, err := d.rewardRepo.GetByID(ctx, r1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RewardConfirmed, stored.Status)
	require.True(t, stored.TxHash.Valid)

	stored, err = d.rewardRepo.GetByID(ctx, r2.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RewardFailed, stored.Status)
	require.Equal(t, "payout_failed", stored.ErrorCode)
	requireBalanceInvariant(t, ctx, d)

	// Re-running with the failed reward leaves the confirmed one alone.
	resp, err = d.reward.DistributeAll(adminCtx, &model.DistributeAllRequest{RewardIDs: []string{r2.ID}})
	require.NoError(t, err)
	require.Empty(t, resp.Confirmed)
	require.Len(t, resp.Failed, 1)
	require.Equal(t, "invalid_state_transition", resp.Failed[0].Code)

	user1, err := d.userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(150), user1.TokenBalance)

	user2, err := d.userRepo.GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.Zero(t, user2.TokenBalance)
	requireBalanceInvariant(t, ctx, d)
}

func Test_rewardDomain_DistributeAll_SameUser(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)
	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)

	ids := []string{}
	for _, amount := range []int64{10, 20, 30, 40} {
		reward := &entity.Reward{
			Base:        entity.Base{ID: fmt.Sprintf("manual reward %d", amount)},
			UserID:      testutil.User1.ID,
			TokenAmount: amount,
			TokenType:   entity.DefaultRewardToken,
			Status:      entity.RewardPending,
		}
		require.NoError(t, d.rewardRepo.Create(ctx, reward))
		ids = append(ids, reward.ID)
	}

	resp, err := d.reward.DistributeAll(adminCtx, &model.DistributeAllRequest{RewardIDs: ids})
	require.NoError(t, err)
	require.Equal(t, ids, resp.Confirmed)
	require.Empty(t, resp.Failed)

	user, err := d.userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), user.TokenBalance)
	requireBalanceInvariant(t, ctx, d)
}

func Test_rewardDomain_FailAndRetry(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)
	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)

	reward := approveAchievement(t, ctx, d, testutil.User2.ID, testutil.Milestone1.ID)

	_, err := d.reward.Retry(adminCtx, &model.RetryRewardRequest{RewardID: reward.ID})
	require.True(t, errorx.Is(err, errorx.InvalidStateTransition))

	_, err = d.reward.Fail(adminCtx, &model.FailRewardRequest{RewardID: reward.ID})
	require.True(t, errorx.Is(err, errorx.BadRequest))

	failed, err := d.reward.Fail(adminCtx, &model.FailRewardRequest{
		RewardID:     reward.ID,
		ErrorCode:    "wallet_missing",
		ErrorMessage: "Link a wallet to receive rewards",
	})
	require.NoError(t, err)
	require.Equal(t, string(entity.RewardFailed), failed.Status)
	require.Equal(t, "wallet_missing", failed.ErrorCode)

	// There is no way back to pending.
	_, err = d.reward.Fail(adminCtx, &model.FailRewardRequest{RewardID: reward.ID, ErrorCode: "again"})
	require.True(t, errorx.Is(err, errorx.InvalidStateTransition))
	_, err = d.reward.Confirm(adminCtx, &model.ConfirmRewardRequest{RewardID: reward.ID, TxHash: "tx1"})
	require.True(t, errorx.Is(err, errorx.InvalidStateTransition))

	retried, err := d.reward.Retry(adminCtx, &model.RetryRewardRequest{RewardID: reward.ID})
	require.NoError(t, err)
	require.NotEqual(t, reward.ID, retried.ID)
	require.Equal(t, string(entity.RewardPending), retried.Status)
	require.Equal(t, reward.ID, retried.RetryOf)
	require.Equal(t, 1, retried.RetryCount)
	require.Equal(t, reward.TokenAmount, retried.TokenAmount)
	require.Equal(t, reward.AchievementID.String, retried.AchievementID)

	_, err = d.reward.Retry(adminCtx, &model.RetryRewardRequest{RewardID: reward.ID})
	require.True(t, errorx.Is(err, errorx.AlreadyExists))

	stored, err := d.rewardRepo.GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RewardFailed, stored.Status)

	_, err = d.reward.Confirm(adminCtx, &model.ConfirmRewardRequest{RewardID: retried.ID, TxHash: "tx2"})
	require.NoError(t, err)
	requireBalanceInvariant(t, ctx, d)

	require.Contains(t, d.emitter.Types(), entity.NotificationRewardFailed)
}

func Test_rewardDomain_GetRewards(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)
	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)

	reward := approveAchievement(t, ctx, d, testutil.User1.ID, testutil.Milestone1.ID)
	require.NoError(t, d.rewardRepo.Create(ctx, &entity.Reward{
		Base:          entity.Base{ID: "other reward"},
		UserID:        testutil.User2.ID,
		AchievementID: sql.NullString{},
		TokenAmount:   5,
		Status:        entity.RewardPending,
	}))

	mine, err := d.reward.GetMyRewards(userCtx, &model.GetMyRewardsRequest{})
	require.NoError(t, err)
	require.Len(t, mine.Rewards, 1)
	require.Equal(t, reward.ID, mine.Rewards[0].ID)

	mine, err = d.reward.GetMyRewards(userCtx, &model.GetMyRewardsRequest{Status: "confirmed"})
	require.NoError(t, err)
	require.Empty(t, mine.Rewards)

	_, err = d.reward.GetMyRewards(userCtx, &model.GetMyRewardsRequest{Status: "paid"})
	require.True(t, errorx.Is(err, errorx.BadRequest))

	_, err = d.reward.GetMyRewards(userCtx, &model.GetMyRewardsRequest{Limit: 1000})
	require.True(t, errorx.Is(err, errorx.BadRequest))

	_, err = d.reward.GetPendingRewards(userCtx, &model.GetPendingRewardsRequest{})
	require.True(t, errorx.Is(err, errorx.PermissionDenied))

	pending, err := d.reward.GetPendingRewards(adminCtx, &model.GetPendingRewardsRequest{})
	require.NoError(t, err)
	require.Len(t, pending.Rewards, 2)

	pending, err = d.reward.GetPendingRewards(adminCtx, &model.GetPendingRewardsRequest{UserID: testutil.User2.ID})
	require.NoError(t, err)
	require.Len(t, pending.Rewards, 1)
}

func Test_rewardDomain_DistributeAll_PayoutError(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)
	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)

	r1 := approveAchievement(t, ctx, d, testutil.User1.ID, testutil.Milestone1.ID)
	r2 := approveAchievement(t, ctx, d, testutil.User2.ID, testutil.Milestone1.ID)

	payout := &testutil.MockPayoutCaller{
		PayoutFunc: func(ctx context.Context, reward *entity.Reward, wallet string) (string, error) {
			if reward.ID == r1.ID {
				return "", errors.New("gateway timeout")
			}
			return "tx-" + reward.ID, nil
		},
	}
	ledger := NewRewardDomain(d.rewardRepo, repository.NewRewardIntentRepository(),
		d.userRepo, payout, d.emitter, nil)

	resp, err := ledger.DistributeAll(adminCtx, &model.DistributeAllRequest{
		RewardIDs: []string{r1.ID, r2.ID},
	})
	require.NoError(t, err)
	require.Equal(t, []string{r2.ID}, resp.Confirmed)
	require.Len(t, resp.Failed, 1)
	require.Equal(t, r1.ID, resp.Failed[0].RewardID)
	require.Equal(t, "payout_failed", resp.Failed[0].Code)
	require.Equal(t, "gateway timeout", resp.Failed[0].Message)

	stored, err := d.rewardRepo.GetByID(ctx, r2.ID)
	require.NoError(t, err)
	require.Equal(t, "tx-"+r2.ID, stored.TxHash.String)

	stored, err = d.rewardRepo.GetByID(ctx, r1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RewardFailed, stored.Status)
	requireBalanceInvariant(t, ctx, d)
}

func Test_rewardDomain_ReconcileIntents_MissingUser(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)
	intentRepo := repository.NewRewardIntentRepository()

	require.NoError(t, intentRepo.Create(ctx, &entity.RewardIntent{
		Base:        entity.Base{ID: "orphan intent"},
		RewardID:    "orphan reward",
		UserID:      "deleted user",
		TokenAmount: 10,
		Status:      entity.IntentApplying,
	}))

	applied, err := d.reward.ReconcileIntents(ctx)
	require.NoError(t, err)
	require.Empty(t, applied)

	intent, err := intentRepo.GetByRewardID(ctx, "orphan reward")
	require.NoError(t, err)
	require.Equal(t, entity.IntentApplying, intent.Status)
	requireBalanceInvariant(t, ctx, d)
}
