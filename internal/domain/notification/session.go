package notification

import (
	"github.com/google/uuid"
	"github.com/impact-lab/backend/internal/domain/notification/event"
)

type Session struct {
	C chan *event.EventResponse

	id     string
	userID string
	hub    *Hub
}

func NewSession(userID string) *Session {
	return &Session{
		C:      make(chan *event.EventResponse, 16),
		id:     uuid.NewString(),
		userID: userID,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Join(hub *Hub) {
	hub.register(s)
	s.hub = hub
}

func (s *Session) Leave() {
	if s.hub != nil {
		s.hub.unregister(s)
		s.hub = nil
	}

	close(s.C)
}
