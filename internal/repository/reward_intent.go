package repository

import (
	"context"

	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/pkg/xcontext"
)

type RewardIntentRepository interface {
	Create(ctx context.Context, data *entity.RewardIntent) error
	GetByRewardID(ctx context.Context, rewardID string) (*entity.RewardIntent, error)
	GetApplying(ctx context.Context, limit int) ([]entity.RewardIntent, error)
	MarkApplied(ctx context.Context, id string) error
}

type rewardIntentRepository struct{}

func NewRewardIntentRepository() *rewardIntentRepository {
	return &rewardIntentRepository{}
}

func (r *rewardIntentRepository) Create(ctx context.Context, data *entity.RewardIntent) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *rewardIntentRepository) GetByRewardID(
	ctx context.Context, rewardID string,
) (*entity.RewardIntent, error) {
	result := &entity.RewardIntent{}
	if err := xcontext.DB(ctx).Take(result, "reward_id=?", rewardID).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *rewardIntentRepository) GetApplying(ctx context.Context, limit int) ([]entity.RewardIntent, error) {
	result := []entity.RewardIntent{}
	err := xcontext.DB(ctx).
		Where("status=?", entity.IntentApplying).
		Order("created_at ASC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *rewardIntentRepository) MarkApplied(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).
		Model(&entity.RewardIntent{}).
		Where("id=? AND status=?", id, entity.IntentApplying).
		Update("status", entity.IntentApplied)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected != 1 {
		return ErrNotMatched
	}

	return nil
}
