package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/espacohidro/pontocerto/internal/application/access"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE USER COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// CreateUserCommand adds a user. Admin only.
type CreateUserCommand struct {
	ActorID string
	Input   staff.NewUserInput
}

// CreateUserHandler handles the CreateUserCommand.
type CreateUserHandler struct {
	users     staff.Repository
	policy    staff.PasswordPolicy
	publisher shared.EventPublisher
}

// NewCreateUserHandler creates a new CreateUserHandler.
func NewCreateUserHandler(users staff.Repository, policy staff.PasswordPolicy, publisher shared.EventPublisher) *CreateUserHandler {
	if policy == nil {
		policy = staff.PlainPolicy{}
	}
	return &CreateUserHandler{users: users, policy: policy, publisher: publisherOrNop(publisher)}
}

// Handle executes the create user command and returns the stored user
// without its password.
func (h *CreateUserHandler) Handle(ctx context.Context, cmd CreateUserCommand) (*staff.User, error) {
	if _, err := access.Admin(ctx, h.users, cmd.ActorID); err != nil {
		return nil, err
	}
	user, err := staff.NewUser(cmd.Input)
	if err != nil {
		return nil, err
	}
	initial := user.Password
	if user.Password, err = h.policy.Hash(initial); err != nil {
		return nil, fmt.Errorf("create_user: %w", err)
	}
	if err := h.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("create_user: save: %w", err)
	}

	publish(h.publisher, shared.NewUserCreatedEvent(user.ID, user.Name, user.Email, initial))

	pub := user.Public()
	return &pub, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE USER COMMAND
// Upserts a user by ID. Empty fields keep the stored value; an empty
// password never clears the stored one.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateUserCommand contains the fields to change. Admin only.
type UpdateUserCommand struct {
	ActorID  string
	ID       string
	Name     string
	Email    string
	Password string
	Role     string
	Position string
}

// UpdateUserHandler handles the UpdateUserCommand.
type UpdateUserHandler struct {
	users  staff.Repository
	policy staff.PasswordPolicy
}

// NewUpdateUserHandler creates a new UpdateUserHandler.
func NewUpdateUserHandler(users staff.Repository, policy staff.PasswordPolicy) *UpdateUserHandler {
	if policy == nil {
		policy = staff.PlainPolicy{}
	}
	return &UpdateUserHandler{users: users, policy: policy}
}

// Handle executes the update user command.
func (h *UpdateUserHandler) Handle(ctx context.Context, cmd UpdateUserCommand) (*staff.User, error) {
	if _, err := access.Admin(ctx, h.users, cmd.ActorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.ID) == "" {
		return nil, shared.NewDomainError("staff", "Update", shared.ErrInvalidID, "id is required")
	}

	user, err := h.users.GetByID(ctx, cmd.ID)
	switch {
	case shared.IsNotFound(err):
		created, cerr := staff.NewUser(staff.NewUserInput{
			Name: cmd.Name, Email: cmd.Email, Password: cmd.Password, Role: cmd.Role, Position: cmd.Position,
		})
		if cerr != nil {
			return nil, cerr
		}
		created.ID = cmd.ID
		user = created
	case err != nil:
		return nil, err
	default:
		if err := applyUserChanges(user, cmd); err != nil {
			return nil, err
		}
	}

	if cmd.Password != "" {
		if user.Password, err = h.policy.Hash(cmd.Password); err != nil {
			return nil, fmt.Errorf("update_user: %w", err)
		}
	}
	if err := h.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("update_user: save: %w", err)
	}
	pub := user.Public()
	return &pub, nil
}

func applyUserChanges(u *staff.User, cmd UpdateUserCommand) error {
	if name := strings.TrimSpace(cmd.Name); name != "" {
		u.Name = name
	}
	if email := strings.TrimSpace(cmd.Email); email != "" {
		u.Email = email
	}
	if pos := strings.TrimSpace(cmd.Position); pos != "" {
		u.Position = pos
	}
	if strings.TrimSpace(cmd.Role) != "" {
		role, err := staff.ParseRole(cmd.Role)
		if err != nil {
			return err
		}
		u.Role = role
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DELETE USER COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// DeleteUserCommand removes a user. Their time logs are kept. Admin only;
// an admin cannot delete their own account.
type DeleteUserCommand struct {
	ActorID string
	ID      string
}

var errDeleteSelf = shared.NewDomainError("staff", "Delete", shared.ErrInvalidState, "cannot delete the acting user")

// DeleteUserHandler handles the DeleteUserCommand.
type DeleteUserHandler struct {
	users     staff.Repository
	publisher shared.EventPublisher
}

// NewDeleteUserHandler creates a new DeleteUserHandler.
func NewDeleteUserHandler(users staff.Repository, publisher shared.EventPublisher) *DeleteUserHandler {
	return &DeleteUserHandler{users: users, publisher: publisherOrNop(publisher)}
}

// Handle executes the delete user command.
func (h *DeleteUserHandler) Handle(ctx context.Context, cmd DeleteUserCommand) error {
	actor, err := access.Admin(ctx, h.users, cmd.ActorID)
	if err != nil {
		return err
	}
	if actor.ID == cmd.ID {
		return errDeleteSelf
	}
	if err := h.users.Delete(ctx, cmd.ID); err != nil {
		return err
	}
	publish(h.publisher, shared.NewUserDeletedEvent(cmd.ID))
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// IMPORT ROSTER COMMAND
// Creates one user per spreadsheet row through CreateUser. Bad rows are
// reported and skipped; good rows are kept.
// ══════════════════════════════════════════════════════════════════════════════

// ImportRosterCommand contains parsed roster rows.
type ImportRosterCommand struct {
	ActorID string
	Rows    []staff.RosterRow
}

// ImportRosterResult reports what was created and what was rejected.
type ImportRosterResult struct {
	Created []staff.User     `json:"created"`
	Errors  []staff.RowError `json:"errors"`
}

// ImportRosterHandler handles the ImportRosterCommand.
type ImportRosterHandler struct {
	users  staff.Repository
	create *CreateUserHandler
}

// NewImportRosterHandler creates a new ImportRosterHandler.
func NewImportRosterHandler(users staff.Repository, create *CreateUserHandler) *ImportRosterHandler {
	return &ImportRosterHandler{users: users, create: create}
}

// Handle executes the import roster command.
func (h *ImportRosterHandler) Handle(ctx context.Context, cmd ImportRosterCommand) (*ImportRosterResult, error) {
	if _, err := access.Admin(ctx, h.users, cmd.ActorID); err != nil {
		return nil, err
	}
	result := &ImportRosterResult{Created: []staff.User{}, Errors: []staff.RowError{}}
	for _, row := range cmd.Rows {
		u, err := h.create.Handle(ctx, CreateUserCommand{ActorID: cmd.ActorID, Input: row.Input})
		if err != nil {
			result.Errors = append(result.Errors, staff.RowError{Line: row.Line, Reason: err.Error()})
			continue
		}
		result.Created = append(result.Created, *u)
	}
	return result, nil
}

// EnsureDefaultAdmin seeds the default administrator into an empty user
// store. Reports whether a user was created.
func EnsureDefaultAdmin(ctx context.Context, users staff.Repository, policy staff.PasswordPolicy) (bool, error) {
	n, err := users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("seed_admin: count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if policy == nil {
		policy = staff.PlainPolicy{}
	}
	admin := staff.DefaultAdmin()
	if admin.Password, err = policy.Hash(admin.Password); err != nil {
		return false, fmt.Errorf("seed_admin: %w", err)
	}
	if err := users.Save(ctx, &admin); err != nil {
		return false, fmt.Errorf("seed_admin: save: %w", err)
	}
	return true, nil
}
