package domain

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/impact-lab/backend/internal/common"
	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/internal/model"
	"github.com/impact-lab/backend/internal/repository"
	"github.com/impact-lab/backend/pkg/enum"
	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type MilestoneDomain interface {
	Create(context.Context, *model.CreateMilestoneRequest) (*model.CreateMilestoneResponse, error)
	Get(context.Context, *model.GetMilestoneRequest) (*model.GetMilestoneResponse, error)
	GetList(context.Context, *model.GetListMilestoneRequest) (*model.GetListMilestoneResponse, error)
}

type milestoneDomain struct {
	milestoneRepo      repository.MilestoneRepository
	globalRoleVerifier *common.GlobalRoleVerifier
}

func NewMilestoneDomain(
	milestoneRepo repository.MilestoneRepository,
	userRepo repository.UserRepository,
) *milestoneDomain {
	return &milestoneDomain{
		milestoneRepo:      milestoneRepo,
		globalRoleVerifier: common.NewGlobalRoleVerifier(userRepo),
	}
}

func (d *milestoneDomain) Create(
	ctx context.Context, req *model.CreateMilestoneRequest,
) (*model.CreateMilestoneResponse, error) {
	if err := verifyAdmin(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errorx.New(errorx.BadRequest, "Title must not be empty")
	}

	if req.RewardAmount <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Reward amount must be positive")
	}

	difficulty, err := enum.ToEnum[entity.Difficulty](req.Difficulty)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Invalid difficulty: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid difficulty %q", req.Difficulty)
	}

	mode := entity.VerificationManual
	if req.VerificationMode != "" {
		mode, err = enum.ToEnum[entity.VerificationMode](req.VerificationMode)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Invalid verification mode: %v", err)
			return nil, errorx.New(errorx.BadRequest, "Invalid verification mode %q", req.VerificationMode)
		}
	}

	token := req.RewardToken
	if token == "" {
		token = entity.DefaultRewardToken
	}

	deadline := sql.NullTime{}
	if req.Deadline != "" {
		t, err := time.Parse(time.RFC3339, req.Deadline)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Deadline must be in RFC3339 format")
		}

		if !t.After(time.Now()) {
			return nil, errorx.New(errorx.BadRequest, "Deadline must be in the future")
		}

		deadline = sql.NullTime{Valid: true, Time: t}
	}

	milestone := &entity.Milestone{
		Base:             entity.Base{ID: uuid.NewString()},
		Title:            title,
		Description:      req.Description,
		RewardAmount:     req.RewardAmount,
		RewardToken:      token,
		Category:         req.Category,
		Difficulty:       difficulty,
		Deadline:         deadline,
		VerificationMode: mode,
		Repeatable:       req.Repeatable,
		CreatedBy:        xcontext.RequestUserID(ctx),
	}

	if err := d.milestoneRepo.Create(ctx, milestone); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create milestone: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateMilestoneResponse{ID: milestone.ID}, nil
}

func (d *milestoneDomain) Get(
	ctx context.Context, req *model.GetMilestoneRequest,
) (*model.GetMilestoneResponse, error) {
	if req.ID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty id")
	}

	milestone, err := d.milestoneRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found milestone")
		}

		xcontext.Logger(ctx).Errorf("Cannot get milestone: %v", err)
		return nil, errorx.Unknown
	}

	resp := model.GetMilestoneResponse(convertMilestone(milestone))
	return &resp, nil
}

func (d *milestoneDomain) GetList(
	ctx context.Context, req *model.GetListMilestoneRequest,
) (*model.GetListMilestoneResponse, error) {
	limit, err := checkLimit(ctx, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}

	filter := repository.MilestoneFilter{Category: req.Category}
	if req.Difficulty != "" {
		difficulty, err := enum.ToEnum[entity.Difficulty](req.Difficulty)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid difficulty %q", req.Difficulty)
		}

		filter.Difficulty = difficulty
	}

	milestones, err := d.milestoneRepo.GetList(ctx, filter, req.Offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get milestone list: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.Milestone{}
	for i := range milestones {
		result = append(result, convertMilestone(&milestones[i]))
	}

	return &model.GetListMilestoneResponse{Milestones: result}, nil
}
