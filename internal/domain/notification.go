package domain

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/impact-lab/backend/internal/domain/notification"
	"github.com/impact-lab/backend/internal/model"
	"github.com/impact-lab/backend/internal/repository"
	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/xcontext"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type NotificationDomain interface {
	GetMyList(context.Context, *model.GetMyNotificationsRequest) (*model.GetMyNotificationsResponse, error)
	CountUnread(context.Context, *model.CountUnreadNotificationsRequest) (*model.CountUnreadNotificationsResponse, error)
	MarkRead(context.Context, *model.ReadNotificationsRequest) (*model.ReadNotificationsResponse, error)
	MarkAllRead(context.Context, *model.ReadAllNotificationsRequest) (*model.ReadAllNotificationsResponse, error)

	// ServeWS streams the new notifications of the requesting user until the
	// connection is closed.
	ServeWS(ctx context.Context, w http.ResponseWriter, r *http.Request)
}

type notificationDomain struct {
	notificationRepo repository.NotificationRepository
	hub              *notification.Hub
}

func NewNotificationDomain(
	notificationRepo repository.NotificationRepository,
	hub *notification.Hub,
) *notificationDomain {
	return &notificationDomain{notificationRepo: notificationRepo, hub: hub}
}

func (d *notificationDomain) GetMyList(
	ctx context.Context, req *model.GetMyNotificationsRequest,
) (*model.GetMyNotificationsResponse, error) {
	limit, err := checkLimit(ctx, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}

	notifications, err := d.notificationRepo.GetList(
		ctx, xcontext.RequestUserID(ctx), req.OnlyUnread, req.Offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get notifications: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.Notification{}
	for i := range notifications {
		result = append(result, convertNotification(&notifications[i]))
	}

	return &model.GetMyNotificationsResponse{Notifications: result}, nil
}

func (d *notificationDomain) CountUnread(
	ctx context.Context, req *model.CountUnreadNotificationsRequest,
) (*model.CountUnreadNotificationsResponse, error) {
	count, err := d.notificationRepo.CountUnread(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count unread notifications: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CountUnreadNotificationsResponse{Count: count}, nil
}

func (d *notificationDomain) MarkRead(
	ctx context.Context, req *model.ReadNotificationsRequest,
) (*model.ReadNotificationsResponse, error) {
	if len(req.IDs) == 0 {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty ids")
	}

	ids, err := parseNotificationIDs(req.IDs)
	if err != nil {
		return nil, err
	}

	count, err := d.notificationRepo.MarkRead(ctx, xcontext.RequestUserID(ctx), ids)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot mark notifications as read: %v", err)
		return nil, errorx.Unknown
	}

	return &model.ReadNotificationsResponse{Count: count}, nil
}

func (d *notificationDomain) MarkAllRead(
	ctx context.Context, req *model.ReadAllNotificationsRequest,
) (*model.ReadAllNotificationsResponse, error) {
	count, err := d.notificationRepo.MarkAllRead(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot mark all notifications as read: %v", err)
		return nil, errorx.Unknown
	}

	return &model.ReadAllNotificationsResponse{Count: count}, nil
}

func (d *notificationDomain) ServeWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	userID := xcontext.RequestUserID(ctx)
	if userID == "" {
		http.Error(w, "User is not valid", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Cannot upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	session := notification.NewSession(userID)
	session.Join(d.hub)
	defer session.Leave()

	// The client never sends anything meaningful, reading only detects the
	// closed connection.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return

		case <-ctx.Done():
			return

		case resp := <-session.C:
			b, err := json.Marshal(resp)
			if err != nil {
				xcontext.Logger(ctx).Errorf("Cannot marshal event: %v", err)
				continue
			}

			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
