package cron

import (
	"context"
	"sync"
	"time"

	"github.com/impact-lab/backend/pkg/xcontext"
	"github.com/robfig/cron/v3"
)

type CronJob interface {
	Do(context.Context)
	RunNow() bool
	Next() time.Time
}

// ScheduledJob computes its next run from a standard five field cron
// expression.
type ScheduledJob struct {
	schedule cron.Schedule
	runNow   bool
}

func NewScheduledJob(spec string, runNow bool) (ScheduledJob, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return ScheduledJob{}, err
	}

	return ScheduledJob{schedule: schedule, runNow: runNow}, nil
}

func (s ScheduledJob) RunNow() bool {
	return s.runNow
}

func (s ScheduledJob) Next() time.Time {
	return s.schedule.Next(time.Now())
}

type CronJobManager struct {
	mutex   sync.Mutex
	wait    sync.WaitGroup
	jobs    map[CronJob]*time.Timer
	running bool
}

func NewCronJobManager() *CronJobManager {
	return &CronJobManager{jobs: make(map[CronJob]*time.Timer)}
}

func (m *CronJobManager) Register(job CronJob) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.jobs[job] = nil
}

// Start runs the registered jobs and blocks until ctx is done. Running jobs
// are waited for before it returns.
func (m *CronJobManager) Start(ctx context.Context) {
	xcontext.Logger(ctx).Infof("Cron job manager started")

	m.mutex.Lock()
	m.running = true
	jobs := make([]CronJob, 0, len(m.jobs))
	for job := range m.jobs {
		jobs = append(jobs, job)
	}
	m.mutex.Unlock()

	for _, job := range jobs {
		if job.RunNow() {
			m.wait.Add(1)
			go m.run(ctx, job)
		} else {
			m.schedule(ctx, job)
		}
	}

	<-ctx.Done()
	m.cancel(ctx)
	m.wait.Wait()
	xcontext.Logger(ctx).Infof("Cron job manager stopped")
}

func (m *CronJobManager) cancel(ctx context.Context) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.running = false
	for job, timer := range m.jobs {
		if timer != nil && timer.Stop() {
			// The timer will never fire, so its run never calls Done.
			m.wait.Done()
		}
		xcontext.Logger(ctx).Debugf("Cancelled %T", job)
	}
}

func (m *CronJobManager) run(ctx context.Context, job CronJob) {
	defer m.wait.Done()

	xcontext.Logger(ctx).Infof("%T is running...", job)
	job.Do(ctx)
	xcontext.Logger(ctx).Infof("%T ok", job)

	m.schedule(ctx, job)
}

func (m *CronJobManager) schedule(ctx context.Context, job CronJob) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	// Only schedule registered jobs while the manager is running.
	if _, ok := m.jobs[job]; !ok || !m.running {
		return
	}

	m.wait.Add(1)
	m.jobs[job] = time.AfterFunc(time.Until(job.Next()), func() { m.run(ctx, job) })
}
