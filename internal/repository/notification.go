package repository

import (
	"context"

	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/pkg/xcontext"
)

type NotificationRepository interface {
	Create(ctx context.Context, data *entity.Notification) error
	GetList(ctx context.Context, userID string, onlyUnread bool, offset, limit int) ([]entity.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID string, ids []int64) (int64, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationRepository struct{}

func NewNotificationRepository() *notificationRepository {
	return &notificationRepository{}
}

func (r *notificationRepository) Create(ctx context.Context, data *entity.Notification) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *notificationRepository) GetList(
	ctx context.Context, userID string, onlyUnread bool, offset, limit int,
) ([]entity.Notification, error) {
	result := []entity.Notification{}
	tx := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("id DESC").
		Offset(offset).
		Limit(limit)

	if onlyUnread {
		tx = tx.Where("is_read=?", false)
	}

	if err := tx.Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).
		Model(&entity.Notification{}).
		Where("user_id=? AND is_read=?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx := xcontext.DB(ctx).
		Model(&entity.Notification{}).
		Where("user_id=? AND id IN (?) AND is_read=?", userID, ids, false).
		Update("is_read", true)
	return tx.RowsAffected, tx.Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tx := xcontext.DB(ctx).
		Model(&entity.Notification{}).
		Where("user_id=? AND is_read=?", userID, false).
		Update("is_read", true)
	return tx.RowsAffected, tx.Error
}
