package entity

import (
	"database/sql"

	"github.com/impact-lab/backend/pkg/enum"
)

type RewardStatus string

var (
	RewardPending   = enum.New(RewardStatus("pending"))
	RewardConfirmed = enum.New(RewardStatus("confirmed"))
	RewardFailed    = enum.New(RewardStatus("failed"))
)

type Reward struct {
	Base

	UserID string `gorm:"index"`
	User   User   `gorm:"foreignKey:UserID"`

	// AchievementID is null for rewards granted manually.
	AchievementID sql.NullString `gorm:"index"`

	TokenAmount int64
	TokenType   string
	Status      RewardStatus `gorm:"index"`
	TxHash      sql.NullString
	Description string

	ErrorCode    string
	ErrorMessage string

	RetryCount int
	RetryOf    sql.NullString
}
