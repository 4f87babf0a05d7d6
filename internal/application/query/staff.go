// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"

	"github.com/espacohidro/pontocerto/internal/application/access"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATE QUERY
// Admins log in with email and password, employees with first name and code.
// ══════════════════════════════════════════════════════════════════════════════

// AuthenticateQuery contains the login attempt.
type AuthenticateQuery struct {
	Identifier string
	Credential string
}

// AuthenticateHandler handles the AuthenticateQuery.
type AuthenticateHandler struct {
	users  staff.Repository
	policy staff.PasswordPolicy
}

// NewAuthenticateHandler creates a new AuthenticateHandler.
func NewAuthenticateHandler(users staff.Repository, policy staff.PasswordPolicy) *AuthenticateHandler {
	if policy == nil {
		policy = staff.PlainPolicy{}
	}
	return &AuthenticateHandler{users: users, policy: policy}
}

// Handle returns the matching user without its password.
func (h *AuthenticateHandler) Handle(ctx context.Context, q AuthenticateQuery) (*staff.User, error) {
	users, err := h.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticate: list users: %w", err)
	}
	u, err := staff.Authenticate(users, q.Identifier, q.Credential, h.policy)
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// USER QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// UsersHandler serves ListUsers and GetUser.
type UsersHandler struct {
	users staff.Repository
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(users staff.Repository) *UsersHandler {
	return &UsersHandler{users: users}
}

// ListUsers returns every user without passwords. Admin only.
func (h *UsersHandler) ListUsers(ctx context.Context, actorID string) ([]staff.User, error) {
	if _, err := access.Admin(ctx, h.users, actorID); err != nil {
		return nil, err
	}
	users, err := h.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]staff.User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out, nil
}

// GetUser returns one user without password. Employees may only read themselves.
func (h *UsersHandler) GetUser(ctx context.Context, actorID, userID string) (*staff.User, error) {
	if _, err := access.SelfOrAdmin(ctx, h.users, actorID, userID); err != nil {
		return nil, err
	}
	u, err := h.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}
