// Package staff contains the clinic user model: employees and administrators,
// how new users are filled in and how credentials are matched.
package staff

import (
	"regexp"
	"strings"

	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Role is the access level of a user.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// ParseRole accepts role names in any case plus the Portuguese aliases
// used in roster spreadsheets. Empty means employee.
func ParseRole(value string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "", "EMPLOYEE", "FUNCIONARIO", "FUNCIONÁRIO":
		return RoleEmployee, nil
	case "ADMIN", "ADMINISTRADOR":
		return RoleAdmin, nil
	default:
		return "", shared.ErrInvalidRole
	}
}

// Defaults applied by NewUser.
const (
	DefaultPosition    = "Funcionário"
	InternalMailDomain = "@interno.com"

	DefaultAdminID    = "1"
	DefaultAdminEmail = "admin@empresa.com"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// User is a clinic staff member. Password holds either the plain code or a
// hash, depending on the PasswordPolicy in use.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
	Position string `json:"position"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Public returns a copy without the password.
func (u User) Public() User {
	u.Password = ""
	return u
}

// NewUserInput carries the fields an admin fills in when adding a user.
type NewUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Position string
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// DeriveEmail builds the internal address for a name:
// "Maria Silva" becomes "maria.silva@interno.com".
func DeriveEmail(name string) string {
	local := whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), ".")
	return local + InternalMailDomain
}

// NewUser validates input and applies defaults. The password is stored as
// given; callers apply their PasswordPolicy afterwards.
func NewUser(in NewUserInput) (*User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, shared.ErrUserNameRequired
	}
	if in.Password == "" {
		return nil, shared.ErrUserPasswordRequired
	}
	role, err := ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		email = DeriveEmail(name)
	}
	position := strings.TrimSpace(in.Position)
	if position == "" {
		position = DefaultPosition
	}

	return &User{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    email,
		Password: in.Password,
		Role:     role,
		Position: position,
	}, nil
}

// DefaultAdmin is the account seeded into an empty user store.
func DefaultAdmin() User {
	return User{
		ID:       DefaultAdminID,
		Name:     "Administrador",
		Email:    DefaultAdminEmail,
		Password: "admin",
		Role:     RoleAdmin,
		Position: "Gerente",
	}
}

// FirstName returns the first whitespace-separated token of name.
func FirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// RosterRow is one line of an imported staff spreadsheet. Line is the
// 1-based sheet row, kept for error reporting.
type RosterRow struct {
	Line  int
	Input NewUserInput
}

// RowError reports a rejected roster line.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}
