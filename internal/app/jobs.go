package app

import (
	"context"
	"fmt"

	"github.com/espacohidro/pontocerto/internal/infrastructure/scheduler"
	"github.com/espacohidro/pontocerto/internal/infrastructure/scheduler/jobs"
)

// recentRuns is how many finished runs the health report lists.
const recentRuns = 5

// NewScheduler registers the background jobs: the end-of-day reminder
// sweep on a fixed interval and the outbox retention sweep on a cron
// schedule in the clinic timezone.
func (a *App) NewScheduler() (*scheduler.Scheduler, error) {
	cfg := a.Config.Scheduler

	s := scheduler.New(scheduler.Config{
		Logger:       a.Logger,
		Timezone:     a.Location,
		TickInterval: cfg.TickInterval,
		Now:          a.Now,
	})

	reminderConfig := jobs.DefaultEndOfDayReminderConfig()
	if cfg.ReminderTimeout > 0 {
		reminderConfig.Timeout = cfg.ReminderTimeout
	}
	reminder := jobs.NewEndOfDayReminderJob(a.Commands.SendReminders, reminderConfig, a.Logger)
	if err := s.Register(reminder, scheduler.NewIntervalSchedule(cfg.ReminderInterval)); err != nil {
		return nil, err
	}

	cron, err := scheduler.ParseCronExpression(cfg.RetentionSchedule)
	if err != nil {
		return nil, fmt.Errorf("retention schedule: %w", err)
	}
	retention := jobs.NewOutboxRetentionJob(a.Repos.Outbox, cfg.OutboxRetention, a.Logger)
	if err := s.Register(retention, cron); err != nil {
		return nil, err
	}

	a.Health.AddDetails("scheduler", func(context.Context) any { return s.Status(recentRuns) })
	return s, nil
}
