package entity

import "github.com/impact-lab/backend/pkg/enum"

type RewardIntentStatus string

var (
	IntentApplying = enum.New(RewardIntentStatus("applying"))
	IntentApplied  = enum.New(RewardIntentStatus("applied"))
)

// RewardIntent is written together with the confirmation of a reward and
// before the owning user's balance is credited. An intent left in applying
// means the credit still has to happen.
type RewardIntent struct {
	Base

	RewardID    string `gorm:"unique"`
	UserID      string `gorm:"index"`
	TokenAmount int64
	Status      RewardIntentStatus `gorm:"index"`
}
