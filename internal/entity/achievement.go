package entity

import (
	"database/sql"

	"github.com/impact-lab/backend/pkg/enum"
)

type AchievementStatus string

var (
	AchievementInProgress = enum.New(AchievementStatus("in_progress"))
	AchievementSubmitted  = enum.New(AchievementStatus("submitted"))
	AchievementVerified   = enum.New(AchievementStatus("verified"))
)

type VerificationStatus string

var (
	VerificationPending  = enum.New(VerificationStatus("pending"))
	VerificationVerified = enum.New(VerificationStatus("verified"))
	VerificationRejected = enum.New(VerificationStatus("rejected"))
)

// ActiveSlot is stored in Achievement.ActiveSlot while the achievement is not
// verified. Together with the unique index it allows at most one unfinished
// attempt per user and milestone.
const ActiveSlot = "active"

type Achievement struct {
	Base

	UserID string `gorm:"uniqueIndex:idx_achievements_active"`
	User   User   `gorm:"foreignKey:UserID"`

	MilestoneID string    `gorm:"uniqueIndex:idx_achievements_active"`
	Milestone   Milestone `gorm:"foreignKey:MilestoneID"`

	ActiveSlot sql.NullString `gorm:"uniqueIndex:idx_achievements_active"`

	Status             AchievementStatus `gorm:"index"`
	VerificationStatus VerificationStatus
	Progress           int
	Evidence           string
	SubmittedAt        sql.NullTime
	CompletedAt        sql.NullTime
	VerifierID         sql.NullString
	RejectionReason    string
}
