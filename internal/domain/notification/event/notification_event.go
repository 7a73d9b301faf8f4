package event

import "time"

type NotificationEvent struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Priority  string    `json:"priority"`
	ActionRef string    `json:"action_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (*NotificationEvent) Op() string {
	return "notification"
}
