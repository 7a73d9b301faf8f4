package main

import (
	"github.com/impact-lab/backend/internal/domain/cron"
	"github.com/impact-lab/backend/internal/domain/notification"
	"github.com/impact-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	s.loadDatabase()
	s.migrateDB()
	s.loadRedisClient()
	s.loadRepos()
	s.loadLeaderboard()

	cfg := xcontext.Configs(s.ctx)
	emitter := notification.NewEmitter(xcontext.SnowFlakeNode(s.ctx),
		notification.NewStoreDeliverer(s.notificationRepo, nil),
		cfg.Notification.Workers, cfg.Notification.QueueSize)
	emitter.Start(s.ctx)
	defer emitter.Stop()

	s.loadDomains(emitter)

	reconcileJob, err := cron.NewReconcileRewardCronJob(cfg.Reward.ReconcileSchedule, s.rewardDomain)
	if err != nil {
		return err
	}

	leaderboardJob, err := cron.NewRefreshLeaderboardCronJob(cfg.Reward.LeaderboardSchedule, s.leaderboard)
	if err != nil {
		return err
	}

	ctx, cancel := s.signalContext()
	defer cancel()

	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(reconcileJob)
	cronJobManager.Register(leaderboardJob)
	cronJobManager.Start(ctx)

	return nil
}
