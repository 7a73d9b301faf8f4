package entity

import (
	"database/sql"

	"github.com/impact-lab/backend/pkg/enum"
)

type NotificationType string

var (
	NotificationAchievementVerified = enum.New(NotificationType("achievement_verified"))
	NotificationAchievementRejected = enum.New(NotificationType("achievement_rejected"))
	NotificationRewardConfirmed     = enum.New(NotificationType("reward_confirmed"))
	NotificationRewardFailed        = enum.New(NotificationType("reward_failed"))
)

type NotificationPriority string

var (
	PriorityLow    = enum.New(NotificationPriority("low"))
	PriorityNormal = enum.New(NotificationPriority("normal"))
	PriorityHigh   = enum.New(NotificationPriority("high"))
)

type Notification struct {
	SnowFlakeBase

	UserID    string `gorm:"index"`
	Type      NotificationType
	Title     string
	Message   string
	IsRead    bool `gorm:"index"`
	Priority  NotificationPriority
	ActionRef sql.NullString
}
