package testutil

import (
	"context"
	"sync"

	"github.com/impact-lab/backend/internal/entity"
)

type Notified struct {
	UserID    string
	Type      entity.NotificationType
	Title     string
	Message   string
	ActionRef string
}

// MockEmitter records every notification synchronously.
type MockEmitter struct {
	mutex    sync.Mutex
	Notified []Notified
}

func (m *MockEmitter) Notify(
	ctx context.Context,
	userID string,
	typ entity.NotificationType,
	title, message, actionRef string,
) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.Notified = append(m.Notified, Notified{
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		ActionRef: actionRef,
	})
}

func (m *MockEmitter) Types() []entity.NotificationType {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	types := []entity.NotificationType{}
	for _, n := range m.Notified {
		types = append(types, n.Type)
	}

	return types
}
