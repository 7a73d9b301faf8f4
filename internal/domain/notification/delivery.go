package notification

import (
	"context"
	"encoding/json"

	"github.com/impact-lab/backend/internal/domain/notification/event"
	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/internal/repository"
	"github.com/impact-lab/backend/pkg/pubsub"
)

// StoreDeliverer persists the notification and pushes it to the live
// websocket sessions of its recipient.
type StoreDeliverer struct {
	notificationRepo repository.NotificationRepository
	hub              *Hub
}

func NewStoreDeliverer(notificationRepo repository.NotificationRepository, hub *Hub) *StoreDeliverer {
	return &StoreDeliverer{notificationRepo: notificationRepo, hub: hub}
}

func (*StoreDeliverer) Name() string {
	return "store"
}

func (d *StoreDeliverer) Deliver(ctx context.Context, notification *entity.Notification) error {
	if err := d.notificationRepo.Create(ctx, notification); err != nil {
		return err
	}

	if d.hub != nil {
		d.hub.Send(notification.UserID, event.New(ToEvent(notification), event.Metadata{
			To: notification.UserID,
		}))
	}

	return nil
}

// KafkaDeliverer hands the notification to the notifier service through a
// topic, keyed by the recipient so a user's notifications stay ordered.
type KafkaDeliverer struct {
	publisher pubsub.Publisher
	topic     string
}

func NewKafkaDeliverer(publisher pubsub.Publisher, topic string) *KafkaDeliverer {
	return &KafkaDeliverer{publisher: publisher, topic: topic}
}

func (*KafkaDeliverer) Name() string {
	return "kafka"
}

func (d *KafkaDeliverer) Deliver(ctx context.Context, notification *entity.Notification) error {
	req := event.New(ToEvent(notification), event.Metadata{To: notification.UserID})
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}

	return d.publisher.Publish(ctx, d.topic, &pubsub.Pack{
		Key: []byte(notification.UserID),
		Msg: b,
	})
}

func ToEvent(notification *entity.Notification) *event.NotificationEvent {
	return &event.NotificationEvent{
		ID:        notification.ID,
		UserID:    notification.UserID,
		Type:      string(notification.Type),
		Title:     notification.Title,
		Message:   notification.Message,
		Priority:  string(notification.Priority),
		ActionRef: notification.ActionRef.String,
		CreatedAt: notification.CreatedAt,
	}
}
