package cron

import (
	"context"

	"github.com/impact-lab/backend/internal/domain/statistic"
	"github.com/impact-lab/backend/pkg/xcontext"
)

// RefreshLeaderboardCronJob drops the redis leaderboard so that it is rebuilt
// from the user balances.
type RefreshLeaderboardCronJob struct {
	ScheduledJob
	leaderboard statistic.Leaderboard
}

func NewRefreshLeaderboardCronJob(
	schedule string, leaderboard statistic.Leaderboard,
) (*RefreshLeaderboardCronJob, error) {
	scheduled, err := NewScheduledJob(schedule, false)
	if err != nil {
		return nil, err
	}

	return &RefreshLeaderboardCronJob{ScheduledJob: scheduled, leaderboard: leaderboard}, nil
}

func (job *RefreshLeaderboardCronJob) Do(ctx context.Context) {
	if err := job.leaderboard.Reset(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reset leaderboard: %v", err)
	}
}
