package attendance

import (
	"context"
	"time"
)

// Repository defines the interface for time log persistence.
// This interface is implemented by the infrastructure layer.
type Repository interface {
	// Save persists a log (create or update by ID).
	Save(ctx context.Context, log *TimeLog) error

	// GetByID returns a log, or shared.ErrLogNotFound.
	GetByID(ctx context.Context, id string) (*TimeLog, error)

	// ListByUser returns every log of a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]TimeLog, error)

	// ListBetween returns logs of a user within [from, to), newest first.
	ListBetween(ctx context.Context, userID string, from, to time.Time) ([]TimeLog, error)

	// ListAll returns every stored log, newest first.
	ListAll(ctx context.Context) ([]TimeLog, error)

	// Delete removes a log. Returns shared.ErrLogNotFound when absent.
	Delete(ctx context.Context, id string) error
}
