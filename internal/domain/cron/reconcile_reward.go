package cron

import (
	"context"

	"github.com/impact-lab/backend/internal/domain"
	"github.com/impact-lab/backend/pkg/xcontext"
)

// ReconcileRewardCronJob credits the balance of confirmed rewards whose
// credit did not finish.
type ReconcileRewardCronJob struct {
	ScheduledJob
	rewardDomain domain.RewardDomain
}

func NewReconcileRewardCronJob(
	schedule string, rewardDomain domain.RewardDomain,
) (*ReconcileRewardCronJob, error) {
	scheduled, err := NewScheduledJob(schedule, true)
	if err != nil {
		return nil, err
	}

	return &ReconcileRewardCronJob{ScheduledJob: scheduled, rewardDomain: rewardDomain}, nil
}

func (job *ReconcileRewardCronJob) Do(ctx context.Context) {
	applied, err := job.rewardDomain.ReconcileIntents(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reconcile reward intents: %v", err)
		return
	}

	if len(applied) > 0 {
		xcontext.Logger(ctx).Infof("Reconciled %d rewards: %v", len(applied), applied)
	}
}
