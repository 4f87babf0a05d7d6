// Package access resolves the acting user of an application operation and
// applies the two access rules: admin-only operations, and employees
// acting only on their own records.
package access

import (
	"context"
	"fmt"
	"strings"

	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
)

// System is the actor ID used by the CLI and scheduled jobs. It passes
// every check.
const System = "system"

var (
	errNoActor  = shared.NewDomainError("access", "Resolve", shared.ErrUnauthorized, "acting user is required")
	errNotAdmin = shared.NewDomainError("access", "Check", shared.ErrForbidden, "administrator access required")
	errNotOwner = shared.NewDomainError("access", "Check", shared.ErrForbidden, "employees may only act on their own records")
)

// Actor is the resolved acting user.
type Actor struct {
	ID      string
	IsAdmin bool
	User    *staff.User // nil for System
}

// Resolve loads the acting user. An unknown ID is an authentication error,
// not a not-found error.
func Resolve(ctx context.Context, users staff.Repository, actorID string) (*Actor, error) {
	if actorID == "" {
		return nil, errNoActor
	}
	if actorID == System {
		return &Actor{ID: System, IsAdmin: true}, nil
	}
	u, err := users.GetByID(ctx, actorID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.WrapError("access", "Resolve", shared.ErrUnauthorized,
				fmt.Sprintf("unknown acting user %q", actorID), err)
		}
		return nil, err
	}
	return &Actor{ID: u.ID, IsAdmin: u.IsAdmin(), User: u}, nil
}

// RequireAdmin fails unless the actor is an administrator.
func (a *Actor) RequireAdmin() error {
	if !a.IsAdmin {
		return errNotAdmin
	}
	return nil
}

// RequireSelfOrAdmin fails when an employee targets another user.
func (a *Actor) RequireSelfOrAdmin(userID string) error {
	if a.IsAdmin || a.ID == userID {
		return nil
	}
	return errNotOwner
}

// Email returns the actor's address, or "" for System.
func (a *Actor) Email() string {
	if a.User == nil {
		return ""
	}
	return a.User.Email
}

// Admin resolves the actor and requires the admin role.
func Admin(ctx context.Context, users staff.Repository, actorID string) (*Actor, error) {
	a, err := Resolve(ctx, users, actorID)
	if err != nil {
		return nil, err
	}
	if err := a.RequireAdmin(); err != nil {
		return nil, err
	}
	return a, nil
}

// SelfOrAdmin resolves the actor and requires access to userID.
func SelfOrAdmin(ctx context.Context, users staff.Repository, actorID, userID string) (*Actor, error) {
	a, err := Resolve(ctx, users, actorID)
	if err != nil {
		return nil, err
	}
	if err := a.RequireSelfOrAdmin(userID); err != nil {
		return nil, err
	}
	return a, nil
}

// Mailbox applies the outbox rule: an employee's recipient is always their
// own address, while an admin may name any recipient or none for all.
func Mailbox(ctx context.Context, users staff.Repository, actorID, requested string) (string, error) {
	a, err := Resolve(ctx, users, actorID)
	if err != nil {
		return "", err
	}
	requested = strings.TrimSpace(requested)
	if a.IsAdmin {
		return requested, nil
	}
	if requested != "" && !strings.EqualFold(requested, a.Email()) {
		return "", errNotOwner
	}
	return a.Email(), nil
}
