package repository

import (
	"context"

	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/pkg/xcontext"
)

type MilestoneFilter struct {
	Category   string
	Difficulty entity.Difficulty
}

type MilestoneRepository interface {
	Create(ctx context.Context, data *entity.Milestone) error
	GetByID(ctx context.Context, id string) (*entity.Milestone, error)
	GetByIDs(ctx context.Context, ids []string) ([]entity.Milestone, error)
	GetList(ctx context.Context, filter MilestoneFilter, offset, limit int) ([]entity.Milestone, error)
}

type milestoneRepository struct{}

func NewMilestoneRepository() *milestoneRepository {
	return &milestoneRepository{}
}

func (r *milestoneRepository) Create(ctx context.Context, data *entity.Milestone) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *milestoneRepository) GetByID(ctx context.Context, id string) (*entity.Milestone, error) {
	result := &entity.Milestone{}
	if err := xcontext.DB(ctx).Take(result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *milestoneRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.Milestone, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	result := []entity.Milestone{}
	if err := xcontext.DB(ctx).Find(&result, "id IN (?)", ids).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *milestoneRepository) GetList(
	ctx context.Context, filter MilestoneFilter, offset, limit int,
) ([]entity.Milestone, error) {
	result := []entity.Milestone{}
	tx := xcontext.DB(ctx).Offset(offset).Limit(limit).Order("created_at DESC")

	if filter.Category != "" {
		tx = tx.Where("category=?", filter.Category)
	}

	if filter.Difficulty != "" {
		tx = tx.Where("difficulty=?", filter.Difficulty)
	}

	if err := tx.Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}
