package testutil

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/impact-lab/backend/config"
	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/pkg/logger"
	"github.com/impact-lab/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func NewMockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		panic(err)
	}

	// Every new connection would open another empty in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}

	cfg := config.Configs{
		Env: "test",
		ApiServer: config.APIServerConfigs{
			MaxLimit:     50,
			DefaultLimit: 10,
		},
		Auth: config.AuthConfigs{
			TokenSecret: "secret",
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: time.Minute,
			},
		},
		Storage: config.S3Configs{
			Bucket:  "evidence",
			MaxSize: 1024,
		},
		Notification: config.NotificationConfigs{
			Workers:   2,
			QueueSize: 16,
			Deliverer: "store",
			Topic:     "notification",
		},
		Reward: config.RewardConfigs{
			DistributeConcurrency: 4,
			ReconcileSchedule:     "*/5 * * * *",
		},
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewNopLogger())
	ctx = xcontext.WithSnowFlakeNode(ctx, node)
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func NewMockContextWithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = NewMockContext()
	}

	return xcontext.WithRequestUserID(ctx, userID)
}
