package model

type GetMyNotificationsRequest struct {
	OnlyUnread bool `json:"only_unread" form:"only_unread"`

	Offset int `json:"offset" form:"offset"`
	Limit  int `json:"limit" form:"limit"`
}

type GetMyNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
}

type CountUnreadNotificationsRequest struct{}

type CountUnreadNotificationsResponse struct {
	Count int64 `json:"count"`
}

type ReadNotificationsRequest struct {
	IDs []string `json:"ids"`
}

type ReadNotificationsResponse struct {
	Count int64 `json:"count"`
}

type ReadAllNotificationsRequest struct{}

type ReadAllNotificationsResponse struct {
	Count int64 `json:"count"`
}
