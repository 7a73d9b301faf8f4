package notification

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/impact-lab/backend/internal/domain/notification/event"
	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/pkg/enum"
	"github.com/impact-lab/backend/pkg/pubsub"
	"github.com/impact-lab/backend/pkg/xcontext"
	"github.com/mitchellh/mapstructure"
)

// NewSubscribeHandler decodes notifications published by KafkaDeliverer and
// hands them to the given deliverer.
func NewSubscribeHandler(deliverer Deliverer) pubsub.SubscribeHandler {
	return func(ctx context.Context, pack *pubsub.Pack, t time.Time) {
		notification, err := DecodeNotification(pack.Msg)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot decode notification event: %v", err)
			return
		}

		if err := deliverer.Deliver(ctx, notification); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot deliver notification %d: %v", notification.ID, err)
			return
		}
	}
}

func DecodeNotification(msg []byte) (*entity.Notification, error) {
	decoder := json.NewDecoder(bytes.NewReader(msg))
	decoder.UseNumber()

	req := event.EventRequest{}
	if err := decoder.Decode(&req); err != nil {
		return nil, err
	}

	if req.Op != (&event.NotificationEvent{}).Op() {
		return nil, fmt.Errorf("unexpected op %q", req.Op)
	}

	ev := event.NotificationEvent{}
	mapDecoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     &ev,
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}

	if err := mapDecoder.Decode(req.Data); err != nil {
		return nil, err
	}

	typ, err := enum.ToEnum[entity.NotificationType](ev.Type)
	if err != nil {
		return nil, err
	}

	priority, err := enum.ToEnum[entity.NotificationPriority](ev.Priority)
	if err != nil {
		priority = priorityOf(typ)
	}

	if ev.UserID == "" || ev.UserID != req.Metadata.To {
		return nil, fmt.Errorf("invalid recipient %q", ev.UserID)
	}

	return &entity.Notification{
		SnowFlakeBase: entity.SnowFlakeBase{ID: ev.ID, CreatedAt: ev.CreatedAt},
		UserID:        ev.UserID,
		Type:          typ,
		Title:         ev.Title,
		Message:       ev.Message,
		Priority:      priority,
		ActionRef:     sql.NullString{Valid: ev.ActionRef != "", String: ev.ActionRef},
	}, nil
}
