package main

import (
	"strings"

	"github.com/impact-lab/backend/internal/domain/notification"
	"github.com/impact-lab/backend/pkg/kafka"
	"github.com/impact-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startNotifier(*cli.Context) error {
	s.loadDatabase()
	s.migrateDB()
	s.loadRepos()

	cfg := xcontext.Configs(s.ctx)

	// Realtime pushes are served by the api, the notifier only persists.
	deliverer := notification.NewStoreDeliverer(s.notificationRepo, nil)
	subscriber, err := kafka.NewSubscriber(
		"notifier",
		strings.Split(cfg.Kafka.Addr, ","),
		[]string{cfg.Notification.Topic},
		notification.NewSubscribeHandler(deliverer),
	)
	if err != nil {
		return err
	}

	ctx, cancel := s.signalContext()
	defer cancel()

	subscriber.Subscribe(ctx)
	xcontext.Logger(s.ctx).Infof("Notifier subscribed to %s", cfg.Notification.Topic)

	<-ctx.Done()
	return subscriber.Stop(s.ctx)
}
