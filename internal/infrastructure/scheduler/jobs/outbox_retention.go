package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/notification"
)

// OutboxRetentionJob deletes outbox emails older than the retention period.
type OutboxRetentionJob struct {
	outbox    notification.Outbox
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewOutboxRetentionJob creates a new retention job. A non-positive
// retention defaults to 90 days.
func NewOutboxRetentionJob(outbox notification.Outbox, retention time.Duration, logger *slog.Logger) *OutboxRetentionJob {
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxRetentionJob{
		outbox:    outbox,
		retention: retention,
		now:       time.Now,
		logger:    logger.With("job", "outbox_retention"),
	}
}

// Name returns the job name.
func (j *OutboxRetentionJob) Name() string {
	return "outbox_retention"
}

// Description returns a human-readable description.
func (j *OutboxRetentionJob) Description() string {
	return fmt.Sprintf("Deletes outbox emails older than %s", j.retention)
}

// Run executes the cleanup.
func (j *OutboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)
	removed, err := j.outbox.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	j.logger.Info("outbox cleaned", "removed", removed, "cutoff", cutoff.Format(time.RFC3339))
	return nil
}
