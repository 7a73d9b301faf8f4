package repository

import (
	"context"

	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, data *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]entity.User, error)
	GetTopByImpactScore(ctx context.Context, offset, limit int) ([]entity.User, error)

	// CreditReward is the only writer of token_balance and total_impact_score.
	// It returns gorm.ErrRecordNotFound if the user does not exist.
	CreditReward(ctx context.Context, userID string, amount int64) error
}

type userRepository struct{}

func NewUserRepository() *userRepository {
	return &userRepository{}
}

func (r *userRepository) Create(ctx context.Context, data *entity.User) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var record entity.User
	if err := xcontext.DB(ctx).Where("id=?", id).Take(&record).Error; err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var records []entity.User
	if err := xcontext.DB(ctx).Where("id IN (?)", ids).Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (r *userRepository) GetTopByImpactScore(ctx context.Context, offset, limit int) ([]entity.User, error) {
	var records []entity.User
	err := xcontext.DB(ctx).
		Order("total_impact_score DESC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *userRepository) CreditReward(ctx context.Context, userID string, amount int64) error {
	tx := xcontext.DB(ctx).
		Model(&entity.User{}).
		Where("id=?", userID).
		Updates(map[string]any{
			"token_balance":      gorm.Expr("token_balance + ?", amount),
			"total_impact_score": gorm.Expr("total_impact_score + ?", amount),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected != 1 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
