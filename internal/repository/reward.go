package repository

import (
	"context"

	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type RewardFilter struct {
	UserID        string
	AchievementID string
	RetryOf       string
	Status        []entity.RewardStatus
}

type RewardRepository interface {
	Create(ctx context.Context, data *entity.Reward) error
	GetByID(ctx context.Context, id string) (*entity.Reward, error)
	GetByIDs(ctx context.Context, ids []string) ([]entity.Reward, error)
	GetList(ctx context.Context, filter RewardFilter, offset, limit int) ([]entity.Reward, error)
	Count(ctx context.Context, filter RewardFilter) (int64, error)
	SumConfirmedByUserID(ctx context.Context, userID string) (int64, error)

	// Confirm and Fail only move a reward out of pending, ErrNotMatched is
	// returned for any other current status.
	Confirm(ctx context.Context, id, txHash string) error
	Fail(ctx context.Context, id, code, message string) error
}

type rewardRepository struct{}

func NewRewardRepository() *rewardRepository {
	return &rewardRepository{}
}

func (r *rewardRepository) Create(ctx context.Context, data *entity.Reward) error {
	return xcontext.DB(ctx).Omit("User").Create(data).Error
}

func (r *rewardRepository) GetByID(ctx context.Context, id string) (*entity.Reward, error) {
	result := &entity.Reward{}
	if err := xcontext.DB(ctx).Take(result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *rewardRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.Reward, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	result := []entity.Reward{}
	if err := xcontext.DB(ctx).Find(&result, "id IN (?)", ids).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *rewardRepository) filter(ctx context.Context, filter RewardFilter) *gorm.DB {
	tx := xcontext.DB(ctx).Model(&entity.Reward{})

	if filter.UserID != "" {
		tx = tx.Where("user_id=?", filter.UserID)
	}

	if filter.AchievementID != "" {
		tx = tx.Where("achievement_id=?", filter.AchievementID)
	}

	if filter.RetryOf != "" {
		tx = tx.Where("retry_of=?", filter.RetryOf)
	}

	if len(filter.Status) > 0 {
		tx = tx.Where("status IN (?)", filter.Status)
	}

	return tx
}

func (r *rewardRepository) GetList(
	ctx context.Context, filter RewardFilter, offset, limit int,
) ([]entity.Reward, error) {
	result := []entity.Reward{}
	err := r.filter(ctx, filter).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *rewardRepository) Count(ctx context.Context, filter RewardFilter) (int64, error) {
	var count int64
	if err := r.filter(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *rewardRepository) SumConfirmedByUserID(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := xcontext.DB(ctx).
		Model(&entity.Reward{}).
		Select("COALESCE(SUM(token_amount), 0)").
		Where("user_id=? AND status=?", userID, entity.RewardConfirmed).
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}

	return sum, nil
}

func (r *rewardRepository) Confirm(ctx context.Context, id, txHash string) error {
	return r.leavePending(ctx, id, map[string]any{
		"status":  entity.RewardConfirmed,
		"tx_hash": txHash,
	})
}

func (r *rewardRepository) Fail(ctx context.Context, id, code, message string) error {
	return r.leavePending(ctx, id, map[string]any{
		"status":        entity.RewardFailed,
		"error_code":    code,
		"error_message": message,
	})
}

func (r *rewardRepository) leavePending(ctx context.Context, id string, updates map[string]any) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Reward{}).
		Where("id=? AND status=?", id, entity.RewardPending).
		Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected != 1 {
		return ErrNotMatched
	}

	return nil
}
