package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/impact-lab/backend/internal/domain/notification"
	"github.com/impact-lab/backend/internal/middleware"
	"github.com/impact-lab/backend/pkg/kafka"
	"github.com/impact-lab/backend/pkg/prometheus"
	"github.com/impact-lab/backend/pkg/router"
	"github.com/impact-lab/backend/pkg/xcontext"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.loadDatabase()
	s.migrateDB()
	s.loadRedisClient()
	s.loadStorage()
	s.loadRepos()
	s.loadLeaderboard()

	s.hub = notification.NewHub()
	deliverer, err := s.newDeliverer()
	if err != nil {
		return err
	}

	cfg := xcontext.Configs(s.ctx)
	emitter := notification.NewEmitter(xcontext.SnowFlakeNode(s.ctx), deliverer,
		cfg.Notification.Workers, cfg.Notification.QueueSize)
	emitter.Start(s.ctx)
	defer emitter.Stop()

	s.loadDomains(emitter)

	ctx, cancel := s.signalContext()
	defer cancel()

	rateLimiter := middleware.NewRateLimiter(cfg.ApiServer.RateLimit, cfg.ApiServer.RateBurst)
	go rateLimiter.Cleanup(ctx)
	s.loadRouter(rateLimiter)

	s.server = &http.Server{
		Addr:    cfg.ApiServer.Address(),
		Handler: cors.AllowAll().Handler(s.router.Handler()),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			xcontext.Logger(s.ctx).Errorf("Cannot shutdown server: %v", err)
		}
	}()

	xcontext.Logger(s.ctx).Infof("Starting server on %s", cfg.ApiServer.Address())
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Server stopped")
	return nil
}

// newDeliverer stores notifications directly, or publishes them to kafka when
// a notifier runs separately.
func (s *srv) newDeliverer() (notification.Deliverer, error) {
	cfg := xcontext.Configs(s.ctx)
	if cfg.Notification.Deliverer != "kafka" {
		return notification.NewStoreDeliverer(s.notificationRepo, s.hub), nil
	}

	publisher, err := kafka.NewPublisher("api", strings.Split(cfg.Kafka.Addr, ","))
	if err != nil {
		return nil, err
	}

	return notification.NewKafkaDeliverer(publisher, cfg.Notification.Topic), nil
}

func (s *srv) loadRouter(rateLimiter *middleware.RateLimiter) {
	s.router = router.New(s.ctx)
	s.router.Before(middleware.WithStartTime())
	s.router.Before(rateLimiter.Middleware())
	s.router.AddCloser(middleware.Logger())
	s.router.AddCloser(middleware.Prometheus())

	metricsHandler := prometheus.NewHandler()
	s.router.Raw(http.MethodGet, "/metrics", func(ctx context.Context, c *gin.Context) {
		metricsHandler.ServeHTTP(c.Writer, c.Request)
	})

	authVerifier := middleware.NewAuthVerifier(s.tokenEngine)

	// Public API.
	publicRouter := s.router.Branch()
	publicRouter.Before(authVerifier.Optional().Middleware())
	{
		router.GET(publicRouter, "/getMilestone", s.milestoneDomain.Get)
		router.GET(publicRouter, "/getListMilestone", s.milestoneDomain.GetList)
		router.GET(publicRouter, "/getLeaderboard", s.userDomain.GetLeaderboard)
	}

	// These following APIs need authentication.
	authRouter := s.router.Branch()
	authRouter.Before(authVerifier.Middleware())
	{
		router.GET(authRouter, "/getMe", s.userDomain.GetMe)

		// Achievement API
		router.POST(authRouter, "/startMilestone", s.achievementDomain.Start)
		router.POST(authRouter, "/submitEvidence", s.achievementDomain.SubmitEvidence)
		router.POST(authRouter, "/updateProgress", s.achievementDomain.UpdateProgress)
		router.POST(authRouter, "/uploadEvidence", s.achievementDomain.UploadEvidence)
		router.GET(authRouter, "/getMyAchievements", s.achievementDomain.GetMyList)
		router.GET(authRouter, "/getAchievement", s.achievementDomain.Get)

		// Reward API
		router.GET(authRouter, "/getMyRewards", s.rewardDomain.GetMyRewards)

		// Notification API
		router.GET(authRouter, "/getMyNotifications", s.notificationDomain.GetMyList)
		router.GET(authRouter, "/countUnreadNotifications", s.notificationDomain.CountUnread)
		router.POST(authRouter, "/readNotifications", s.notificationDomain.MarkRead)
		router.POST(authRouter, "/readAllNotifications", s.notificationDomain.MarkAllRead)
		authRouter.Raw(http.MethodGet, "/notifications/ws", func(ctx context.Context, c *gin.Context) {
			s.notificationDomain.ServeWS(ctx, c.Writer, c.Request)
		})
	}

	// Admin API.
	adminRouter := authRouter.Branch()
	adminRouter.Before(middleware.NewOnlyAdmin(s.userRepo).Middleware())
	{
		router.POST(adminRouter, "/createMilestone", s.milestoneDomain.Create)

		router.POST(adminRouter, "/decide", s.verificationDomain.Decide)
		router.POST(adminRouter, "/decideAll", s.verificationDomain.DecideAll)
		router.GET(adminRouter, "/getPendingAchievements", s.verificationDomain.GetPendingList)

		router.POST(adminRouter, "/confirmReward", s.rewardDomain.Confirm)
		router.POST(adminRouter, "/failReward", s.rewardDomain.Fail)
		router.POST(adminRouter, "/retryReward", s.rewardDomain.Retry)
		router.POST(adminRouter, "/distributeAll", s.rewardDomain.DistributeAll)
		router.POST(adminRouter, "/reconcileRewards", s.rewardDomain.Reconcile)
		router.GET(adminRouter, "/getPendingRewards", s.rewardDomain.GetPendingRewards)
	}
}
