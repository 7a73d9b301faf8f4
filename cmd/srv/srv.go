package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/snowflake"
	"github.com/impact-lab/backend/config"
	"github.com/impact-lab/backend/internal/client"
	"github.com/impact-lab/backend/internal/domain"
	"github.com/impact-lab/backend/internal/domain/notification"
	"github.com/impact-lab/backend/internal/domain/statistic"
	"github.com/impact-lab/backend/internal/model"
	"github.com/impact-lab/backend/internal/repository"
	"github.com/impact-lab/backend/migration"
	"github.com/impact-lab/backend/pkg/jwt"
	"github.com/impact-lab/backend/pkg/logger"
	"github.com/impact-lab/backend/pkg/router"
	"github.com/impact-lab/backend/pkg/storage"
	"github.com/impact-lab/backend/pkg/xcontext"
	"github.com/impact-lab/backend/pkg/xredis"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type srv struct {
	app *cli.App
	ctx context.Context

	server  *http.Server
	router  *router.Router
	storage storage.Storage

	redisClient xredis.Client
	tokenEngine *jwt.Engine[model.AccessToken]

	userRepo         repository.UserRepository
	milestoneRepo    repository.MilestoneRepository
	achievementRepo  repository.AchievementRepository
	rewardRepo       repository.RewardRepository
	rewardIntentRepo repository.RewardIntentRepository
	notificationRepo repository.NotificationRepository

	hub         *notification.Hub
	leaderboard statistic.Leaderboard

	milestoneDomain    domain.MilestoneDomain
	achievementDomain  domain.AchievementDomain
	verificationDomain domain.VerificationDomain
	rewardDomain       domain.RewardDomain
	notificationDomain domain.NotificationDomain
	userDomain         domain.UserDomain
}

func (s *srv) loadConfig(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return err
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	s.ctx = xcontext.WithConfigs(s.ctx, cfg)
	s.ctx = xcontext.WithSnowFlakeNode(s.ctx, node)
	s.loadLogger()
	s.tokenEngine = jwt.NewEngine[model.AccessToken](cfg.Auth.TokenSecret, cfg.Auth.AccessToken.Expiration)

	return nil
}

func (s *srv) loadLogger() {
	cfg := xcontext.Configs(s.ctx).Log
	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(logger.Configuration{
		Level:   cfg.Level,
		File:    cfg.File,
		Console: true,
	}))
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx).Database

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.ConnectionString())
	case "sqlite":
		dialector = sqlite.Open(cfg.ConnectionString())
	default:
		dialector = mysql.New(mysql.Config{
			DSN:                       cfg.ConnectionString(),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		})
	}

	var level gormlogger.LogLevel
	switch cfg.LogLevel {
	case "silent":
		level = gormlogger.Silent
	case "warn":
		level = gormlogger.Warn
	case "info":
		level = gormlogger.Info
	default:
		level = gormlogger.Error
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) loadDatabase() {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
}

func (s *srv) migrateDB() {
	if err := migration.Migrate(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRedisClient() {
	var err error
	s.redisClient, err = xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadStorage() {
	var err error
	s.storage, err = storage.NewS3Storage(xcontext.Configs(s.ctx).Storage)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.milestoneRepo = repository.NewMilestoneRepository()
	s.achievementRepo = repository.NewAchievementRepository()
	s.rewardRepo = repository.NewRewardRepository()
	s.rewardIntentRepo = repository.NewRewardIntentRepository()
	s.notificationRepo = repository.NewNotificationRepository()
}

func (s *srv) loadLeaderboard() {
	s.leaderboard = statistic.New(s.userRepo, s.redisClient)
}

func (s *srv) loadDomains(emitter notification.Emitter) {
	s.milestoneDomain = domain.NewMilestoneDomain(s.milestoneRepo, s.userRepo)

	rewardDomain := domain.NewRewardDomain(s.rewardRepo, s.rewardIntentRepo, s.userRepo,
		client.NewOffchainPayout(), emitter, s.leaderboard)
	verificationDomain := domain.NewVerificationDomain(s.achievementRepo, s.milestoneRepo,
		s.userRepo, rewardDomain, emitter)

	s.rewardDomain = rewardDomain
	s.verificationDomain = verificationDomain
	s.achievementDomain = domain.NewAchievementDomain(s.achievementRepo, s.milestoneRepo,
		s.userRepo, verificationDomain, s.storage)
	s.notificationDomain = domain.NewNotificationDomain(s.notificationRepo, s.hub)
	s.userDomain = domain.NewUserDomain(s.userRepo, s.leaderboard)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func (s *srv) signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(s.ctx, os.Interrupt, syscall.SIGTERM)
}
