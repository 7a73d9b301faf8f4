package notification

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/impact-lab/backend/internal/common"
	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/pkg/xcontext"
)

// Emitter surfaces state transitions to users. Notify never blocks the caller
// and never reports a failure.
type Emitter interface {
	Notify(
		ctx context.Context,
		userID string,
		typ entity.NotificationType,
		title, message, actionRef string,
	)
}

type Deliverer interface {
	Name() string
	Deliver(ctx context.Context, notification *entity.Notification) error
}

type emitter struct {
	node      *snowflake.Node
	deliverer Deliverer
	workers   int

	queue  chan *entity.Notification
	wg     sync.WaitGroup
	mutex  sync.RWMutex
	closed bool
}

func NewEmitter(node *snowflake.Node, deliverer Deliverer, workers, queueSize int) *emitter {
	if workers <= 0 {
		workers = 1
	}

	return &emitter{
		node:      node,
		deliverer: deliverer,
		workers:   workers,
		queue:     make(chan *entity.Notification, queueSize),
	}
}

// Start runs the delivery workers. ctx must carry the dependencies needed by
// the deliverer (database, logger), request contexts must not be used here.
func (e *emitter) Start(ctx context.Context) {
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.run(ctx)
	}
}

// Stop refuses new notifications and waits until queued ones are delivered.
func (e *emitter) Stop() {
	e.mutex.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mutex.Unlock()

	e.wg.Wait()
}

func (e *emitter) Notify(
	ctx context.Context,
	userID string,
	typ entity.NotificationType,
	title, message, actionRef string,
) {
	notification := &entity.Notification{
		SnowFlakeBase: entity.SnowFlakeBase{
			ID:        e.node.Generate().Int64(),
			CreatedAt: time.Now(),
		},
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Priority:  priorityOf(typ),
		ActionRef: sql.NullString{Valid: actionRef != "", String: actionRef},
	}

	e.mutex.RLock()
	defer e.mutex.RUnlock()

	if e.closed {
		xcontext.Logger(ctx).Warnf("Emitter is stopped, drop notification %s to %s", typ, userID)
		common.IncCounter(common.NotificationDroppedTotal, string(typ))
		return
	}

	select {
	case e.queue <- notification:
	default:
		xcontext.Logger(ctx).Warnf("Notification queue is full, drop %s to %s", typ, userID)
		common.IncCounter(common.NotificationDroppedTotal, string(typ))
	}
}

func (e *emitter) run(ctx context.Context) {
	defer e.wg.Done()

	for notification := range e.queue {
		if err := e.deliverer.Deliver(ctx, notification); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot deliver notification %d to %s: %v",
				notification.ID, notification.UserID, err)
			common.IncCounter(common.NotificationDeliveryTotal, e.deliverer.Name(), "failure")
			continue
		}

		common.IncCounter(common.NotificationDeliveryTotal, e.deliverer.Name(), "success")
	}
}

func priorityOf(typ entity.NotificationType) entity.NotificationPriority {
	switch typ {
	case entity.NotificationAchievementVerified, entity.NotificationRewardConfirmed:
		return entity.PriorityHigh
	case entity.NotificationAchievementRejected, entity.NotificationRewardFailed:
		return entity.PriorityNormal
	default:
		return entity.PriorityLow
	}
}
