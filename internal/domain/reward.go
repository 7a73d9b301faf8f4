package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/impact-lab/backend/internal/client"
	"github.com/impact-lab/backend/internal/common"
	"github.com/impact-lab/backend/internal/domain/notification"
	"github.com/impact-lab/backend/internal/domain/statistic"
	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/internal/model"
	"github.com/impact-lab/backend/internal/repository"
	"github.com/impact-lab/backend/pkg/enum"
	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/xcontext"
	"github.com/puzpuzpuz/xsync"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	stepRewardConfirmed = "reward_confirmed"
	stepBalanceCredit   = "balance_credit"
)

// Codes reported for the rewards of a batch which were not confirmed.
const (
	resultPayoutFailed           = "payout_failed"
	resultNotFound               = "not_found"
	resultInvalidStateTransition = "invalid_state_transition"
	resultPartialApplication     = "partial_application"
	resultUnknown                = "unknown"
)

type RewardDomain interface {
	// CreatePendingReward must be called inside the unit of work which
	// verifies the achievement.
	CreatePendingReward(ctx context.Context, achievement *entity.Achievement, milestone *entity.Milestone) (*entity.Reward, error)
	Confirm(context.Context, *model.ConfirmRewardRequest) (*model.ConfirmRewardResponse, error)
	Fail(context.Context, *model.FailRewardRequest) (*model.FailRewardResponse, error)
	Retry(context.Context, *model.RetryRewardRequest) (*model.RetryRewardResponse, error)
	DistributeAll(context.Context, *model.DistributeAllRequest) (*model.DistributeAllResponse, error)
	Reconcile(context.Context, *model.ReconcileRewardsRequest) (*model.ReconcileRewardsResponse, error)
	ReconcileIntents(ctx context.Context) ([]string, error)
	GetMyRewards(context.Context, *model.GetMyRewardsRequest) (*model.GetMyRewardsResponse, error)
	GetPendingRewards(context.Context, *model.GetPendingRewardsRequest) (*model.GetPendingRewardsResponse, error)
}

type rewardDomain struct {
	rewardRepo         repository.RewardRepository
	rewardIntentRepo   repository.RewardIntentRepository
	userRepo           repository.UserRepository
	payoutCaller       client.PayoutCaller
	emitter            notification.Emitter
	leaderboard        statistic.Leaderboard
	globalRoleVerifier *common.GlobalRoleVerifier

	userLocks *xsync.MapOf[string, *sync.Mutex]
}

func NewRewardDomain(
	rewardRepo repository.RewardRepository,
	rewardIntentRepo repository.RewardIntentRepository,
	userRepo repository.UserRepository,
	payoutCaller client.PayoutCaller,
	emitter notification.Emitter,
	leaderboard statistic.Leaderboard,
) *rewardDomain {
	return &rewardDomain{
		rewardRepo:         rewardRepo,
		rewardIntentRepo:   rewardIntentRepo,
		userRepo:           userRepo,
		payoutCaller:       payoutCaller,
		emitter:            emitter,
		leaderboard:        leaderboard,
		globalRoleVerifier: common.NewGlobalRoleVerifier(userRepo),
		userLocks:          xsync.NewMapOf[*sync.Mutex](),
	}
}

func (d *rewardDomain) CreatePendingReward(
	ctx context.Context, achievement *entity.Achievement, milestone *entity.Milestone,
) (*entity.Reward, error) {
	if milestone.RewardAmount <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Reward amount of milestone %s must be positive", milestone.ID)
	}

	reward := &entity.Reward{
		Base:          entity.Base{ID: uuid.NewString()},
		UserID:        achievement.UserID,
		AchievementID: sql.NullString{Valid: true, String: achievement.ID},
		TokenAmount:   milestone.RewardAmount,
		TokenType:     milestone.RewardToken,
		Status:        entity.RewardPending,
		Description:   fmt.Sprintf("Reward for %s", milestone.Title),
	}

	if err := d.rewardRepo.Create(ctx, reward); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create pending reward: %v", err)
		return nil, errorx.Unknown
	}

	return reward, nil
}

func (d *rewardDomain) Confirm(
	ctx context.Context, req *model.ConfirmRewardRequest,
) (*model.ConfirmRewardResponse, error) {
	if err := verifyAdmin(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	reward, err := d.confirm(ctx, req.RewardID, req.TxHash)
	if err != nil {
		return nil, err
	}

	resp := model.ConfirmRewardResponse(convertReward(reward))
	return &resp, nil
}

func (d *rewardDomain) Fail(
	ctx context.Context, req *model.FailRewardRequest,
) (*model.FailRewardResponse, error) {
	if err := verifyAdmin(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	reward, err := d.fail(ctx, req.RewardID, req.ErrorCode, req.ErrorMessage)
	if err != nil {
		return nil, err
	}

	resp := model.FailRewardResponse(convertReward(reward))
	return &resp, nil
}

func (d *rewardDomain) Retry(
	ctx context.Context, req *model.RetryRewardRequest,
) (*model.RetryRewardResponse, error) {
	if err := verifyAdmin(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	failed, err := d.getReward(ctx, req.RewardID)
	if err != nil {
		return nil, err
	}

	if failed.Status != entity.RewardFailed {
		return nil, errorx.New(errorx.InvalidStateTransition, "Only failed rewards can be retried")
	}

	retried, err := d.rewardRepo.Count(ctx, repository.RewardFilter{RetryOf: failed.ID})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count retries of reward: %v", err)
		return nil, errorx.Unknown
	}

	if retried > 0 {
		return nil, errorx.New(errorx.AlreadyExists, "Reward has already been retried")
	}

	reward := &entity.Reward{
		Base:          entity.Base{ID: uuid.NewString()},
		UserID:        failed.UserID,
		AchievementID: failed.AchievementID,
		TokenAmount:   failed.TokenAmount,
		TokenType:     failed.TokenType,
		Status:        entity.RewardPending,
		Description:   failed.Description,
		RetryCount:    failed.RetryCount + 1,
		RetryOf:       sql.NullString{Valid: true, String: failed.ID},
	}

	if err := d.rewardRepo.Create(ctx, reward); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create retried reward: %v", err)
		return nil, errorx.Unknown
	}

	resp := model.RetryRewardResponse(convertReward(reward))
	return &resp, nil
}

func (d *rewardDomain) DistributeAll(
	ctx context.Context, req *model.DistributeAllRequest,
) (*model.DistributeAllResponse, error) {
	if err := verifyAdmin(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	ids := []string{}
	seen := map[string]bool{}
	for _, id := range req.RewardIDs {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty reward ids")
	}

	rewards, err := d.rewardRepo.GetByIDs(ctx, ids)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get rewards: %v", err)
		return nil, errorx.Unknown
	}

	rewardByID := map[string]*entity.Reward{}
	for i := range rewards {
		rewardByID[rewards[i].ID] = &rewards[i]
	}

	// Rewards of the same user are confirmed sequentially, in request order.
	userIDs := []string{}
	rewardsByUser := map[string][]*entity.Reward{}
	for _, id := range ids {
		reward, ok := rewardByID[id]
		if !ok {
			continue
		}

		if _, ok := rewardsByUser[reward.UserID]; !ok {
			userIDs = append(userIDs, reward.UserID)
		}
		rewardsByUser[reward.UserID] = append(rewardsByUser[reward.UserID], reward)
	}

	users, err := d.userRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get users: %v", err)
		return nil, errorx.Unknown
	}

	wallets := map[string]string{}
	for _, u := range users {
		wallets[u.ID] = u.WalletAddress.String
	}

	var mutex sync.Mutex
	failures := map[string]model.FailedReward{}
	for _, id := range ids {
		if _, ok := rewardByID[id]; !ok {
			failures[id] = model.FailedReward{RewardID: id, Code: resultNotFound, Message: "Not found reward"}
		}
	}

	g := errgroup.Group{}
	g.SetLimit(distributeConcurrency(ctx))
	for _, userID := range userIDs {
		userRewards := rewardsByUser[userID]
		wallet := wallets[userID]
		g.Go(func() error {
			for _, reward := range userRewards {
				if failure := d.distribute(ctx, reward, wallet); failure != nil {
					mutex.Lock()
					failures[reward.ID] = *failure
					mutex.Unlock()
				}
			}

			return nil
		})
	}

	// Workers record failures instead of returning them.
	_ = g.Wait()

	resp := &model.DistributeAllResponse{Confirmed: []string{}, Failed: []model.FailedReward{}}
	for _, id := range ids {
		if failure, ok := failures[id]; ok {
			resp.Failed = append(resp.Failed, failure)
		} else {
			resp.Confirmed = append(resp.Confirmed, id)
		}
	}

	return resp, nil
}

func (d *rewardDomain) Reconcile(
	ctx context.Context, req *model.ReconcileRewardsRequest,
) (*model.ReconcileRewardsResponse, error) {
	if err := verifyAdmin(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	applied, err := d.ReconcileIntents(ctx)
	if err != nil {
		return nil, err
	}

	return &model.ReconcileRewardsResponse{Applied: applied}, nil
}

// ReconcileIntents finishes the balance credit of confirmed rewards whose
// intent is still applying. It returns the ids of the rewards credited now.
func (d *rewardDomain) ReconcileIntents(ctx context.Context) ([]string, error) {
	intents, err := d.rewardIntentRepo.GetApplying(ctx, common.ReconcileBatchSize)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get applying reward intents: %v", err)
		return nil, errorx.Unknown
	}

	applied := []string{}
	for i := range intents {
		intent := &intents[i]

		unlock := d.lockUser(intent.UserID)
		err := d.credit(ctx, intent)
		unlock()

		if err != nil {
			switch {
			case errors.Is(err, repository.ErrNotMatched):
				xcontext.Logger(ctx).Infof("Reward intent %s has already been applied", intent.ID)
			case errors.Is(err, gorm.ErrRecordNotFound):
				xcontext.Logger(ctx).Errorf("Cannot apply reward intent %s, user %s does not exist",
					intent.ID, intent.UserID)
			default:
				xcontext.Logger(ctx).Errorf("Cannot apply reward intent %s: %v", intent.ID, err)
			}
			continue
		}

		applied = append(applied, intent.RewardID)
		reward, err := d.rewardRepo.GetByID(ctx, intent.RewardID)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot get reconciled reward %s: %v", intent.RewardID, err)
			continue
		}

		d.afterCredit(ctx, reward)
	}

	return applied, nil
}

func (d *rewardDomain) GetMyRewards(
	ctx context.Context, req *model.GetMyRewardsRequest,
) (*model.GetMyRewardsResponse, error) {
	limit, err := checkLimit(ctx, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}

	filter := repository.RewardFilter{UserID: xcontext.RequestUserID(ctx)}
	if req.Status != "" {
		status, err := enum.ToEnum[entity.RewardStatus](req.Status)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid status %q", req.Status)
		}

		filter.Status = []entity.RewardStatus{status}
	}

	rewards, err := d.rewardRepo.GetList(ctx, filter, req.Offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward list: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.Reward{}
	for i := range rewards {
		result = append(result, convertReward(&rewards[i]))
	}

	return &model.GetMyRewardsResponse{Rewards: result}, nil
}

func (d *rewardDomain) GetPendingRewards(
	ctx context.Context, req *model.GetPendingRewardsRequest,
) (*model.GetPendingRewardsResponse, error) {
	if err := verifyAdmin(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	limit, err := checkLimit(ctx, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}

	rewards, err := d.rewardRepo.GetList(ctx, repository.RewardFilter{
		UserID: req.UserID,
		Status: []entity.RewardStatus{entity.RewardPending},
	}, req.Offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get pending rewards: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.Reward{}
	for i := range rewards {
		result = append(result, convertReward(&rewards[i]))
	}

	return &model.GetPendingRewardsResponse{Rewards: result}, nil
}

func (d *rewardDomain) confirm(ctx context.Context, rewardID, txHash string) (*entity.Reward, error) {
	if txHash == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty transaction reference")
	}

	reward, err := d.getReward(ctx, rewardID)
	if err != nil {
		return nil, err
	}

	if reward.Status != entity.RewardPending {
		return nil, errorx.New(errorx.InvalidStateTransition, "Reward is %s, not pending", reward.Status)
	}

	unlock := d.lockUser(reward.UserID)
	defer unlock()

	intent := &entity.RewardIntent{
		Base:        entity.Base{ID: uuid.NewString()},
		RewardID:    reward.ID,
		UserID:      reward.UserID,
		TokenAmount: reward.TokenAmount,
		Status:      entity.IntentApplying,
	}

	if err := d.recordConfirmation(ctx, reward.ID, txHash, intent); err != nil {
		return nil, err
	}

	common.IncCounter(common.RewardSettlementTotal, string(entity.RewardConfirmed))
	reward.Status = entity.RewardConfirmed
	reward.TxHash = sql.NullString{Valid: true, String: txHash}

	if err := d.credit(ctx, intent); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot credit reward %s, intent %s is left applying: %v",
			reward.ID, intent.ID, err)
		common.IncCounter(common.RewardPartialTotal, stepBalanceCredit)
		return nil, errorx.NewPartialError(stepRewardConfirmed, stepBalanceCredit, intent.ID, err)
	}

	d.afterCredit(ctx, reward)
	return reward, nil
}

// recordConfirmation flips the reward to confirmed and records the intent to
// credit the balance in one unit of work.
func (d *rewardDomain) recordConfirmation(
	ctx context.Context, rewardID, txHash string, intent *entity.RewardIntent,
) error {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.rewardRepo.Confirm(ctx, rewardID, txHash); err != nil {
		if errors.Is(err, repository.ErrNotMatched) {
			return errorx.New(errorx.InvalidStateTransition, "Reward is no longer pending")
		}

		xcontext.Logger(ctx).Errorf("Cannot confirm reward: %v", err)
		return errorx.Unknown
	}

	if err := d.rewardIntentRepo.Create(ctx, intent); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errorx.New(errorx.InvalidStateTransition, "Reward has already been confirmed")
		}

		xcontext.Logger(ctx).Errorf("Cannot create reward intent: %v", err)
		return errorx.Unknown
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit reward confirmation: %v", err)
		return errorx.Unknown
	}

	return nil
}

// credit applies an intent to the balance of its user exactly once. It
// returns repository.ErrNotMatched if the intent was applied meanwhile.
func (d *rewardDomain) credit(ctx context.Context, intent *entity.RewardIntent) error {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.userRepo.CreditReward(ctx, intent.UserID, intent.TokenAmount); err != nil {
		return err
	}

	if err := d.rewardIntentRepo.MarkApplied(ctx, intent.ID); err != nil {
		return err
	}

	return xcontext.WithCommitDBTransaction(ctx)
}

func (d *rewardDomain) afterCredit(ctx context.Context, reward *entity.Reward) {
	d.emitter.Notify(ctx, reward.UserID, entity.NotificationRewardConfirmed,
		"Reward confirmed",
		fmt.Sprintf("%d %s have been added to your balance", reward.TokenAmount, reward.TokenType),
		reward.ID,
	)

	if d.leaderboard == nil {
		return
	}

	user, err := d.userRepo.GetByID(ctx, reward.UserID)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot get user to update leaderboard: %v", err)
		return
	}

	if err := d.leaderboard.SetImpactScore(ctx, user.ID, user.TotalImpactScore); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot update leaderboard: %v", err)
	}
}

func (d *rewardDomain) fail(ctx context.Context, rewardID, code, message string) (*entity.Reward, error) {
	if code == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty error code")
	}

	reward, err := d.getReward(ctx, rewardID)
	if err != nil {
		return nil, err
	}

	if err := d.rewardRepo.Fail(ctx, reward.ID, code, message); err != nil {
		if errors.Is(err, repository.ErrNotMatched) {
			return nil, errorx.New(errorx.InvalidStateTransition, "Reward is no longer pending")
		}

		xcontext.Logger(ctx).Errorf("Cannot fail reward: %v", err)
		return nil, errorx.Unknown
	}

	common.IncCounter(common.RewardSettlementTotal, string(entity.RewardFailed))
	reward.Status = entity.RewardFailed
	reward.ErrorCode = code
	reward.ErrorMessage = message

	d.emitter.Notify(ctx, reward.UserID, entity.NotificationRewardFailed,
		"Reward failed", message, reward.ID)

	return reward, nil
}

// distribute pays and confirms one reward of a batch. It returns nil if the
// reward has been confirmed.
func (d *rewardDomain) distribute(ctx context.Context, reward *entity.Reward, wallet string) *model.FailedReward {
	if reward.Status != entity.RewardPending {
		return &model.FailedReward{
			RewardID: reward.ID,
			Code:     resultInvalidStateTransition,
			Message:  fmt.Sprintf("Reward is %s, not pending", reward.Status),
		}
	}

	txHash, err := d.payoutCaller.Payout(ctx, reward, wallet)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot pay reward %s: %v", reward.ID, err)
		if _, failErr := d.fail(ctx, reward.ID, resultPayoutFailed, err.Error()); failErr != nil {
			return failedReward(reward.ID, failErr)
		}

		return &model.FailedReward{RewardID: reward.ID, Code: resultPayoutFailed, Message: err.Error()}
	}

	if _, err := d.confirm(ctx, reward.ID, txHash); err != nil {
		return failedReward(reward.ID, err)
	}

	return nil
}

func (d *rewardDomain) getReward(ctx context.Context, id string) (*entity.Reward, error) {
	if id == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty reward id")
	}

	reward, err := d.rewardRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found reward")
		}

		xcontext.Logger(ctx).Errorf("Cannot get reward: %v", err)
		return nil, errorx.Unknown
	}

	return reward, nil
}

func (d *rewardDomain) lockUser(userID string) func() {
	mutex, _ := d.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mutex.Lock()
	return mutex.Unlock
}

func failedReward(rewardID string, err error) *model.FailedReward {
	code := resultUnknown
	switch errorx.CodeOf(err) {
	case errorx.NotFound:
		code = resultNotFound
	case errorx.InvalidStateTransition:
		code = resultInvalidStateTransition
	case errorx.PartialApplication:
		code = resultPartialApplication
	}

	return &model.FailedReward{RewardID: rewardID, Code: code, Message: err.Error()}
}

func distributeConcurrency(ctx context.Context) int {
	n := xcontext.Configs(ctx).Reward.DistributeConcurrency
	if n <= 0 {
		return 1
	}

	return n
}
