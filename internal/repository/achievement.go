package repository

import (
	"context"

	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/pkg/xcontext"
)

type AchievementFilter struct {
	UserID      string
	MilestoneID string
	Status      []entity.AchievementStatus
}

type AchievementRepository interface {
	Create(ctx context.Context, data *entity.Achievement) error
	GetByID(ctx context.Context, id string) (*entity.Achievement, error)
	GetActive(ctx context.Context, userID, milestoneID string) (*entity.Achievement, error)
	CountVerified(ctx context.Context, userID, milestoneID string) (int64, error)
	GetList(ctx context.Context, filter AchievementFilter, offset, limit int) ([]entity.Achievement, error)

	// UpdateIfStatus applies updates only when the achievement is currently in
	// one of the expected statuses. It returns ErrNotMatched otherwise.
	UpdateIfStatus(
		ctx context.Context,
		id string,
		expected []entity.AchievementStatus,
		updates map[string]any,
	) error
}

type achievementRepository struct{}

func NewAchievementRepository() *achievementRepository {
	return &achievementRepository{}
}

func (r *achievementRepository) Create(ctx context.Context, data *entity.Achievement) error {
	return xcontext.DB(ctx).Omit("User", "Milestone").Create(data).Error
}

func (r *achievementRepository) GetByID(ctx context.Context, id string) (*entity.Achievement, error) {
	result := &entity.Achievement{}
	if err := xcontext.DB(ctx).Take(result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *achievementRepository) GetActive(
	ctx context.Context, userID, milestoneID string,
) (*entity.Achievement, error) {
	result := &entity.Achievement{}
	err := xcontext.DB(ctx).
		Where("user_id=? AND milestone_id=? AND active_slot=?", userID, milestoneID, entity.ActiveSlot).
		Take(result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *achievementRepository) CountVerified(
	ctx context.Context, userID, milestoneID string,
) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).
		Model(&entity.Achievement{}).
		Where("user_id=? AND milestone_id=? AND status=?", userID, milestoneID, entity.AchievementVerified).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *achievementRepository) GetList(
	ctx context.Context, filter AchievementFilter, offset, limit int,
) ([]entity.Achievement, error) {
	result := []entity.Achievement{}
	tx := xcontext.DB(ctx).
		Preload("Milestone").
		Offset(offset).
		Limit(limit).
		Order("updated_at ASC")

	if filter.UserID != "" {
		tx = tx.Where("user_id=?", filter.UserID)
	}

	if filter.MilestoneID != "" {
		tx = tx.Where("milestone_id=?", filter.MilestoneID)
	}

	if len(filter.Status) > 0 {
		tx = tx.Where("status IN (?)", filter.Status)
	}

	if err := tx.Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *achievementRepository) UpdateIfStatus(
	ctx context.Context,
	id string,
	expected []entity.AchievementStatus,
	updates map[string]any,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Achievement{}).
		Where("id=? AND status IN (?)", id, expected).
		Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return ErrNotMatched
	}

	return nil
}
