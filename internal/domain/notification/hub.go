package notification

import (
	"sync"
	"sync/atomic"

	"github.com/impact-lab/backend/internal/domain/notification/event"
)

// Hub fans out events to every live session of a user.
type Hub struct {
	sessions map[string]map[string]*Session
	seq      atomic.Int64

	mutex sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[string]*Session),
	}
}

// Send returns the number of sessions which received the event. A session
// whose buffer is full misses the event, the stored notification is still
// readable through the list endpoint.
func (h *Hub) Send(userID string, ev *event.EventRequest) int {
	resp := event.Format(ev, h.seq.Add(1))

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	sent := 0
	for _, s := range h.sessions[userID] {
		select {
		case s.C <- resp:
			sent++
		default:
		}
	}

	return sent
}

func (h *Hub) Count(userID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.sessions[userID])
}

func (h *Hub) register(session *Session) {
	h.mutex.RLock()
	_, ok := h.sessions[session.userID][session.id]
	h.mutex.RUnlock()
	if ok {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	// Double check.
	userSessions, ok := h.sessions[session.userID]
	if !ok {
		userSessions = make(map[string]*Session)
		h.sessions[session.userID] = userSessions
	}

	if _, ok := userSessions[session.id]; !ok {
		userSessions[session.id] = session
	}
}

func (h *Hub) unregister(session *Session) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	userSessions, ok := h.sessions[session.userID]
	if !ok {
		return
	}

	delete(userSessions, session.id)
	if len(userSessions) == 0 {
		delete(h.sessions, session.userID)
	}
}
