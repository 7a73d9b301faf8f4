package entity

import (
	"context"

	"github.com/impact-lab/backend/pkg/xcontext"
)

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&User{},
		&Milestone{},
		&Achievement{},
		&Reward{},
		&RewardIntent{},
		&Notification{},
		&Migration{},
	)
}
