package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/impact-lab/backend/internal/common"
	"github.com/impact-lab/backend/internal/domain/lifecycle"
	"github.com/impact-lab/backend/internal/domain/notification"
	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/internal/model"
	"github.com/impact-lab/backend/internal/repository"
	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// rejectedProgress is the progress an achievement returns to after its
// evidence was rejected.
const rejectedProgress = 50

type VerificationDomain interface {
	Decide(context.Context, *model.DecideRequest) (*model.DecideResponse, error)
	DecideAll(context.Context, *model.DecideAllRequest) (*model.DecideAllResponse, error)
	GetPendingList(context.Context, *model.GetPendingAchievementsRequest) (*model.GetPendingAchievementsResponse, error)

	// AutoApprove approves a submitted achievement on behalf of the system
	// verifier.
	AutoApprove(ctx context.Context, achievementID string) error
}

type verificationDomain struct {
	achievementRepo    repository.AchievementRepository
	milestoneRepo      repository.MilestoneRepository
	rewardDomain       RewardDomain
	emitter            notification.Emitter
	globalRoleVerifier *common.GlobalRoleVerifier
}

func NewVerificationDomain(
	achievementRepo repository.AchievementRepository,
	milestoneRepo repository.MilestoneRepository,
	userRepo repository.UserRepository,
	rewardDomain RewardDomain,
	emitter notification.Emitter,
) *verificationDomain {
	return &verificationDomain{
		achievementRepo:    achievementRepo,
		milestoneRepo:      milestoneRepo,
		rewardDomain:       rewardDomain,
		emitter:            emitter,
		globalRoleVerifier: common.NewGlobalRoleVerifier(userRepo),
	}
}

func (d *verificationDomain) Decide(
	ctx context.Context, req *model.DecideRequest,
) (*model.DecideResponse, error) {
	if err := verifyAdmin(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	achievement, milestone, err := d.decide(
		ctx, req.AchievementID, xcontext.RequestUserID(ctx), req.Approve, req.RejectionReason)
	if err != nil {
		return nil, err
	}

	resp := model.DecideResponse(convertAchievement(achievement, milestone))
	return &resp, nil
}

func (d *verificationDomain) DecideAll(
	ctx context.Context, req *model.DecideAllRequest,
) (*model.DecideAllResponse, error) {
	if err := verifyAdmin(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	if len(req.AchievementIDs) == 0 {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty achievement ids")
	}

	verifierID := xcontext.RequestUserID(ctx)
	results := []model.DecisionResult{}
	for _, id := range req.AchievementIDs {
		achievement, _, err := d.decide(ctx, id, verifierID, req.Approve, req.RejectionReason)
		if err != nil {
			results = append(results, model.DecisionResult{
				ID:      id,
				Code:    int64(errorx.CodeOf(err)),
				Message: err.Error(),
			})
			continue
		}

		results = append(results, model.DecisionResult{
			ID:     id,
			Status: string(achievement.VerificationStatus),
		})
	}

	return &model.DecideAllResponse{Results: results}, nil
}

func (d *verificationDomain) GetPendingList(
	ctx context.Context, req *model.GetPendingAchievementsRequest,
) (*model.GetPendingAchievementsResponse, error) {
	if err := verifyAdmin(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	limit, err := checkLimit(ctx, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}

	achievements, err := d.achievementRepo.GetList(ctx, repository.AchievementFilter{
		MilestoneID: req.MilestoneID,
		Status:      []entity.AchievementStatus{entity.AchievementSubmitted},
	}, req.Offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get pending achievements: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.Achievement{}
	for i := range achievements {
		result = append(result, convertAchievement(&achievements[i], &achievements[i].Milestone))
	}

	return &model.GetPendingAchievementsResponse{Achievements: result}, nil
}

func (d *verificationDomain) AutoApprove(ctx context.Context, achievementID string) error {
	_, _, err := d.decide(ctx, achievementID, common.SystemVerifierID, true, "")
	return err
}

func (d *verificationDomain) decide(
	ctx context.Context, achievementID, verifierID string, approve bool, reason string,
) (*entity.Achievement, *entity.Milestone, error) {
	if achievementID == "" {
		return nil, nil, errorx.New(errorx.BadRequest, "Not allow empty achievement id")
	}

	achievement, err := d.achievementRepo.GetByID(ctx, achievementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errorx.New(errorx.NotFound, "Not found achievement")
		}

		xcontext.Logger(ctx).Errorf("Cannot get achievement: %v", err)
		return nil, nil, errorx.Unknown
	}

	event := lifecycle.Reject
	if approve {
		event = lifecycle.Approve
	}

	from := lifecycle.Of(achievement)
	to, err := from.Next(event, reason)
	if err != nil {
		return nil, nil, errorx.New(errorx.InvalidStateTransition, "Cannot decide: %v", err)
	}

	milestone, err := d.milestoneRepo.GetByID(ctx, achievement.MilestoneID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get milestone: %v", err)
		return nil, nil, errorx.Unknown
	}

	updates := to.Columns()
	updates["verifier_id"] = sql.NullString{Valid: true, String: verifierID}
	if approve {
		updates["completed_at"] = sql.NullTime{Valid: true, Time: time.Now()}
	} else {
		updates["progress"] = rejectedProgress
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	// The conditional update rejects a concurrent or repeated decision.
	err = d.achievementRepo.UpdateIfStatus(ctx, achievement.ID,
		[]entity.AchievementStatus{entity.AchievementSubmitted}, updates)
	if err != nil {
		if errors.Is(err, repository.ErrNotMatched) {
			return nil, nil, errorx.New(errorx.InvalidStateTransition, "Achievement has already been decided")
		}

		xcontext.Logger(ctx).Errorf("Cannot update achievement: %v", err)
		return nil, nil, errorx.Unknown
	}

	if approve {
		if _, err := d.rewardDomain.CreatePendingReward(ctx, achievement, milestone); err != nil {
			return nil, nil, err
		}
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit decision: %v", err)
		return nil, nil, errorx.Unknown
	}

	countTransition(from, to)

	if approve {
		d.emitter.Notify(ctx, achievement.UserID, entity.NotificationAchievementVerified,
			"Achievement verified",
			fmt.Sprintf("%s has been verified, %d %s are on the way",
				milestone.Title, milestone.RewardAmount, milestone.RewardToken),
			achievement.ID,
		)
	} else {
		d.emitter.Notify(ctx, achievement.UserID, entity.NotificationAchievementRejected,
			"Achievement rejected",
			fmt.Sprintf("%s was rejected: %s", milestone.Title, reason),
			achievement.ID,
		)
	}

	achievement, err = d.achievementRepo.GetByID(ctx, achievement.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get achievement: %v", err)
		return nil, nil, errorx.Unknown
	}

	return achievement, milestone, nil
}
