package staff

import "context"

// Repository defines the interface for user persistence.
type Repository interface {
	// Save creates or replaces a user by ID.
	Save(ctx context.Context, user *User) error

	// GetByID returns a user, or shared.ErrUserNotFound.
	GetByID(ctx context.Context, id string) (*User, error)

	// List returns every user ordered by name.
	List(ctx context.Context) ([]User, error)

	// Delete removes a user. Time logs are left untouched.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored users.
	Count(ctx context.Context) (int, error)
}
