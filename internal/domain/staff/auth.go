package staff

import (
	"fmt"
	"strings"

	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// PasswordPolicy decides how passwords are stored and compared.
type PasswordPolicy interface {
	// Name identifies the policy in configuration.
	Name() string

	// Hash prepares a password for storage.
	Hash(password string) (string, error)

	// Matches compares a stored value with a typed credential.
	Matches(stored, credential string) bool
}

// PlainPolicy stores passwords as typed and compares them exactly.
type PlainPolicy struct{}

func (PlainPolicy) Name() string { return "plain" }

func (PlainPolicy) Hash(password string) (string, error) { return password, nil }

func (PlainPolicy) Matches(stored, credential string) bool {
	return stored == credential
}

// BcryptPolicy stores bcrypt hashes. Stored values that are not bcrypt
// hashes (seeded admin, old backups) fall back to an exact compare.
type BcryptPolicy struct {
	Cost int
}

func (BcryptPolicy) Name() string { return "bcrypt" }

func (p BcryptPolicy) Hash(password string) (string, error) {
	if isBcryptHash(password) {
		return password, nil
	}
	cost := p.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (BcryptPolicy) Matches(stored, credential string) bool {
	if !isBcryptHash(stored) {
		return stored == credential
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(credential)) == nil
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

// PolicyByName returns the policy for a configuration value.
func PolicyByName(name string) (PasswordPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "plain":
		return PlainPolicy{}, nil
	case "bcrypt":
		return BcryptPolicy{}, nil
	default:
		return nil, shared.NewDomainError("staff", "PolicyByName", shared.ErrInvalidInput, "unknown password policy "+name)
	}
}

// Authenticate finds the user a login attempt refers to. Administrators log
// in with their email, employees with their first name; both use the
// password. Admins are matched first.
func Authenticate(users []User, identifier, credential string, policy PasswordPolicy) (*User, error) {
	if policy == nil {
		policy = PlainPolicy{}
	}
	id := strings.TrimSpace(identifier)
	cred := strings.TrimSpace(credential)
	if id == "" || cred == "" {
		return nil, shared.ErrInvalidCredentials
	}

	for i := range users {
		u := &users[i]
		if u.IsAdmin() && strings.EqualFold(u.Email, id) && policy.Matches(u.Password, cred) {
			return u, nil
		}
	}
	for i := range users {
		u := &users[i]
		if !u.IsAdmin() && strings.EqualFold(FirstName(u.Name), id) && policy.Matches(u.Password, cred) {
			return u, nil
		}
	}
	return nil, shared.ErrInvalidCredentials
}
