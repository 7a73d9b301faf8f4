package entity

import (
	"database/sql"

	"github.com/impact-lab/backend/pkg/enum"
)

type Difficulty string

var (
	DifficultyEasy   = enum.New(Difficulty("easy"))
	DifficultyMedium = enum.New(Difficulty("medium"))
	DifficultyHard   = enum.New(Difficulty("hard"))
)

type VerificationMode string

var (
	VerificationManual = enum.New(VerificationMode("manual"))
	VerificationAuto   = enum.New(VerificationMode("auto"))
)

const DefaultRewardToken = "IMPACT"

type Milestone struct {
	Base

	Title            string
	Description      string
	RewardAmount     int64
	RewardToken      string `gorm:"default:IMPACT"`
	Category         string `gorm:"index"`
	Difficulty       Difficulty
	Deadline         sql.NullTime
	VerificationMode VerificationMode `gorm:"default:manual"`
	Repeatable       bool

	CreatedBy string
}
