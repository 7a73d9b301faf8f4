package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/impact-lab/backend/internal/common"
	"github.com/impact-lab/backend/internal/domain/lifecycle"
	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/internal/model"
	"github.com/impact-lab/backend/internal/repository"
	"github.com/impact-lab/backend/pkg/enum"
	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/storage"
	"github.com/impact-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

const evidenceFormKey = "evidence"

type AchievementDomain interface {
	Start(context.Context, *model.StartMilestoneRequest) (*model.StartMilestoneResponse, error)
	SubmitEvidence(context.Context, *model.SubmitEvidenceRequest) (*model.SubmitEvidenceResponse, error)
	UpdateProgress(context.Context, *model.UpdateProgressRequest) (*model.UpdateProgressResponse, error)
	UploadEvidence(context.Context, *model.UploadEvidenceRequest) (*model.UploadEvidenceResponse, error)
	GetMyList(context.Context, *model.GetMyAchievementsRequest) (*model.GetMyAchievementsResponse, error)
	Get(context.Context, *model.GetAchievementRequest) (*model.GetAchievementResponse, error)
}

type achievementDomain struct {
	achievementRepo    repository.AchievementRepository
	milestoneRepo      repository.MilestoneRepository
	verificationDomain VerificationDomain
	storage            storage.Storage
	globalRoleVerifier *common.GlobalRoleVerifier
}

func NewAchievementDomain(
	achievementRepo repository.AchievementRepository,
	milestoneRepo repository.MilestoneRepository,
	userRepo repository.UserRepository,
	verificationDomain VerificationDomain,
	storage storage.Storage,
) *achievementDomain {
	return &achievementDomain{
		achievementRepo:    achievementRepo,
		milestoneRepo:      milestoneRepo,
		verificationDomain: verificationDomain,
		storage:            storage,
		globalRoleVerifier: common.NewGlobalRoleVerifier(userRepo),
	}
}

func (d *achievementDomain) Start(
	ctx context.Context, req *model.StartMilestoneRequest,
) (*model.StartMilestoneResponse, error) {
	if req.MilestoneID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty milestone id")
	}

	userID := xcontext.RequestUserID(ctx)
	milestone, err := d.milestoneRepo.GetByID(ctx, req.MilestoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found milestone")
		}

		xcontext.Logger(ctx).Errorf("Cannot get milestone: %v", err)
		return nil, errorx.Unknown
	}

	if milestone.Deadline.Valid && time.Now().After(milestone.Deadline.Time) {
		return nil, errorx.New(errorx.Unavailable, "Milestone has passed its deadline")
	}

	_, err = d.achievementRepo.GetActive(ctx, userID, milestone.ID)
	if err == nil {
		return nil, errorx.New(errorx.AlreadyExists, "Milestone has already been started")
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get active achievement: %v", err)
		return nil, errorx.Unknown
	}

	if !milestone.Repeatable {
		verified, err := d.achievementRepo.CountVerified(ctx, userID, milestone.ID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot count verified achievements: %v", err)
			return nil, errorx.Unknown
		}

		if verified > 0 {
			return nil, errorx.New(errorx.AlreadyExists, "Milestone has already been achieved")
		}
	}

	from := lifecycle.Of(nil)
	to, err := from.Next(lifecycle.Start, "")
	if err != nil {
		return nil, errorx.New(errorx.InvalidStateTransition, "%v", err)
	}

	achievement := &entity.Achievement{
		Base:               entity.Base{ID: uuid.NewString()},
		UserID:             userID,
		MilestoneID:        milestone.ID,
		ActiveSlot:         sql.NullString{Valid: true, String: entity.ActiveSlot},
		Status:             to.Status(),
		VerificationStatus: to.VerificationStatus(),
		Progress:           0,
	}

	if err := d.achievementRepo.Create(ctx, achievement); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errorx.New(errorx.AlreadyExists, "Milestone has already been started")
		}

		xcontext.Logger(ctx).Errorf("Cannot create achievement: %v", err)
		return nil, errorx.Unknown
	}

	countTransition(from, to)

	resp := model.StartMilestoneResponse(convertAchievement(achievement, milestone))
	return &resp, nil
}

func (d *achievementDomain) SubmitEvidence(
	ctx context.Context, req *model.SubmitEvidenceRequest,
) (*model.SubmitEvidenceResponse, error) {
	evidence := strings.TrimSpace(req.Evidence)
	if evidence == "" {
		return nil, errorx.New(errorx.BadRequest, "Evidence must not be empty")
	}

	achievement, err := d.getOwned(ctx, req.AchievementID)
	if err != nil {
		return nil, err
	}

	from := lifecycle.Of(achievement)
	to, err := from.Next(lifecycle.SubmitEvidence, "")
	if err != nil {
		return nil, errorx.New(errorx.InvalidStateTransition, "Cannot submit evidence: %v", err)
	}

	updates := to.Columns()
	updates["progress"] = 100
	updates["evidence"] = evidence
	updates["submitted_at"] = sql.NullTime{Valid: true, Time: time.Now()}

	err = d.achievementRepo.UpdateIfStatus(ctx, achievement.ID,
		[]entity.AchievementStatus{from.Status()}, updates)
	if err != nil {
		if errors.Is(err, repository.ErrNotMatched) {
			return nil, errorx.New(errorx.InvalidStateTransition, "Achievement is no longer in progress")
		}

		xcontext.Logger(ctx).Errorf("Cannot submit evidence: %v", err)
		return nil, errorx.Unknown
	}

	countTransition(from, to)

	milestone, err := d.milestoneRepo.GetByID(ctx, achievement.MilestoneID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get milestone: %v", err)
		return nil, errorx.Unknown
	}

	if milestone.VerificationMode == entity.VerificationAuto {
		// The submission stays durable even if the automatic verification
		// fails, an admin can still decide it later.
		if err := d.verificationDomain.AutoApprove(ctx, achievement.ID); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot auto approve achievement %s: %v", achievement.ID, err)
		}
	}

	achievement, err = d.achievementRepo.GetByID(ctx, achievement.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get achievement: %v", err)
		return nil, errorx.Unknown
	}

	resp := model.SubmitEvidenceResponse(convertAchievement(achievement, milestone))
	return &resp, nil
}

func (d *achievementDomain) UpdateProgress(
	ctx context.Context, req *model.UpdateProgressRequest,
) (*model.UpdateProgressResponse, error) {
	achievement, err := d.getOwned(ctx, req.AchievementID)
	if err != nil {
		return nil, err
	}

	from := lifecycle.Of(achievement)
	if _, err := from.Next(lifecycle.UpdateProgress, ""); err != nil {
		return nil, errorx.New(errorx.InvalidStateTransition, "Cannot update progress: %v", err)
	}

	progress := lifecycle.ClampProgress(req.Progress)
	err = d.achievementRepo.UpdateIfStatus(ctx, achievement.ID,
		[]entity.AchievementStatus{entity.AchievementInProgress},
		map[string]any{"progress": progress})
	if err != nil {
		if errors.Is(err, repository.ErrNotMatched) {
			return nil, errorx.New(errorx.InvalidStateTransition, "Achievement is no longer in progress")
		}

		xcontext.Logger(ctx).Errorf("Cannot update progress: %v", err)
		return nil, errorx.Unknown
	}

	achievement.Progress = progress
	resp := model.UpdateProgressResponse(convertAchievement(achievement, nil))
	return &resp, nil
}

func (d *achievementDomain) UploadEvidence(
	ctx context.Context, req *model.UploadEvidenceRequest,
) (*model.UploadEvidenceResponse, error) {
	storageCfg := xcontext.Configs(ctx).Storage
	httpReq := xcontext.HTTPRequest(ctx)
	if httpReq == nil {
		return nil, errorx.New(errorx.BadRequest, "Request must be multipart form")
	}

	if err := httpReq.ParseMultipartForm(int64(storageCfg.MaxSize)); err != nil {
		return nil, errorx.New(errorx.BadRequest, "Request must be multipart form")
	}

	file, header, err := httpReq.FormFile(evidenceFormKey)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Error retrieving the file")
	}
	defer file.Close()

	if header.Size > int64(storageCfg.MaxSize) {
		return nil, errorx.New(errorx.BadRequest, "File too large (at most %d bytes)", storageCfg.MaxSize)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot read evidence file: %v", err)
		return nil, errorx.Unknown
	}

	resp, err := d.storage.Upload(ctx, &storage.UploadObject{
		Bucket:   storageCfg.Bucket,
		Prefix:   fmt.Sprintf("evidence/%s", xcontext.RequestUserID(ctx)),
		FileName: header.Filename,
		Mime:     header.Header.Get("Content-Type"),
		Data:     data,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot upload evidence: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UploadEvidenceResponse{URL: resp.Url}, nil
}

func (d *achievementDomain) GetMyList(
	ctx context.Context, req *model.GetMyAchievementsRequest,
) (*model.GetMyAchievementsResponse, error) {
	limit, err := checkLimit(ctx, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}

	filter := repository.AchievementFilter{UserID: xcontext.RequestUserID(ctx)}
	if req.Status != "" {
		status, err := enum.ToEnum[entity.AchievementStatus](req.Status)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid status %q", req.Status)
		}

		filter.Status = []entity.AchievementStatus{status}
	}

	achievements, err := d.achievementRepo.GetList(ctx, filter, req.Offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get achievement list: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.Achievement{}
	for i := range achievements {
		result = append(result, convertAchievement(&achievements[i], &achievements[i].Milestone))
	}

	return &model.GetMyAchievementsResponse{Achievements: result}, nil
}

func (d *achievementDomain) Get(
	ctx context.Context, req *model.GetAchievementRequest,
) (*model.GetAchievementResponse, error) {
	achievement, err := d.get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if achievement.UserID != xcontext.RequestUserID(ctx) {
		if err := verifyAdmin(ctx, d.globalRoleVerifier); err != nil {
			return nil, err
		}
	}

	milestone, err := d.milestoneRepo.GetByID(ctx, achievement.MilestoneID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get milestone: %v", err)
		return nil, errorx.Unknown
	}

	resp := model.GetAchievementResponse(convertAchievement(achievement, milestone))
	return &resp, nil
}

func (d *achievementDomain) get(ctx context.Context, id string) (*entity.Achievement, error) {
	if id == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty id")
	}

	achievement, err := d.achievementRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found achievement")
		}

		xcontext.Logger(ctx).Errorf("Cannot get achievement: %v", err)
		return nil, errorx.Unknown
	}

	return achievement, nil
}

func (d *achievementDomain) getOwned(ctx context.Context, id string) (*entity.Achievement, error) {
	achievement, err := d.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if achievement.UserID != xcontext.RequestUserID(ctx) {
		return nil, errorx.New(errorx.PermissionDenied, "Achievement belongs to another user")
	}

	return achievement, nil
}
