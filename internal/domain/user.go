package domain

import (
	"context"
	"errors"

	"github.com/impact-lab/backend/internal/domain/statistic"
	"github.com/impact-lab/backend/internal/model"
	"github.com/impact-lab/backend/internal/repository"
	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type UserDomain interface {
	GetMe(context.Context, *model.GetMeRequest) (*model.GetMeResponse, error)
	GetLeaderboard(context.Context, *model.GetLeaderboardRequest) (*model.GetLeaderboardResponse, error)
}

type userDomain struct {
	userRepo    repository.UserRepository
	leaderboard statistic.Leaderboard
}

func NewUserDomain(userRepo repository.UserRepository, leaderboard statistic.Leaderboard) *userDomain {
	return &userDomain{userRepo: userRepo, leaderboard: leaderboard}
}

func (d *userDomain) GetMe(ctx context.Context, req *model.GetMeRequest) (*model.GetMeResponse, error) {
	user, err := d.userRepo.GetByID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	resp := model.GetMeResponse(convertUser(user, true))
	return &resp, nil
}

func (d *userDomain) GetLeaderboard(
	ctx context.Context, req *model.GetLeaderboardRequest,
) (*model.GetLeaderboardResponse, error) {
	limit, err := checkLimit(ctx, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}

	entries, err := d.leaderboard.GetLeaderboard(ctx, req.Offset, limit)
	if err != nil {
		return nil, err
	}

	return &model.GetLeaderboardResponse{Leaderboard: entries}, nil
}
