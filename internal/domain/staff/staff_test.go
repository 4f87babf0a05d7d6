package staff

import (
	"testing"

	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser_Defaults(t *testing.T) {
	u, err := NewUser(NewUserInput{Name: "  Maria   da Silva ", Password: "1234"})
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Maria   da Silva", u.Name)
	assert.Equal(t, "maria.da.silva@interno.com", u.Email)
	assert.Equal(t, RoleEmployee, u.Role)
	assert.Equal(t, DefaultPosition, u.Position)
}

func TestNewUser_KeepsGivenFields(t *testing.T) {
	u, err := NewUser(NewUserInput{
		Name: "Ana", Email: "ana@clinica.com", Password: "x", Role: "admin", Position: "Recepção",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@clinica.com", u.Email)
	assert.Equal(t, RoleAdmin, u.Role)
	assert.Equal(t, "Recepção", u.Position)
}

func TestNewUser_Validation(t *testing.T) {
	_, err := NewUser(NewUserInput{Name: " ", Password: "1"})
	assert.ErrorIs(t, err, shared.ErrUserNameRequired)

	_, err = NewUser(NewUserInput{Name: "Ana"})
	assert.ErrorIs(t, err, shared.ErrUserPasswordRequired)
	assert.True(t, shared.IsValidation(err))

	_, err = NewUser(NewUserInput{Name: "Ana", Password: "1", Role: "owner"})
	assert.ErrorIs(t, err, shared.ErrInvalidRole)
}

func TestDefaultAdmin(t *testing.T) {
	a := DefaultAdmin()
	assert.Equal(t, "1", a.ID)
	assert.Equal(t, "admin@empresa.com", a.Email)
	assert.Equal(t, "admin", a.Password)
	assert.True(t, a.IsAdmin())
	assert.Empty(t, a.Public().Password)
	assert.Equal(t, "admin", a.Password)
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Maria", FirstName("  Maria Silva"))
	assert.Equal(t, "", FirstName("   "))
}

func TestAuthenticate(t *testing.T) {
	users := []User{
		DefaultAdmin(),
		{ID: "2", Name: "Carlos Souza", Password: "4321", Role: RoleEmployee},
		{ID: "3", Name: "Carla Lima", Password: "admin", Role: RoleEmployee, Email: "carla@x.com"},
	}

	u, err := Authenticate(users, " ADMIN@empresa.com ", "admin ", nil)
	require.NoError(t, err)
	assert.Equal(t, "1", u.ID)

	u, err = Authenticate(users, "carlos", "4321", PlainPolicy{})
	require.NoError(t, err)
	assert.Equal(t, "2", u.ID)

	// Employees cannot log in by email; admins cannot log in by first name.
	_, err = Authenticate(users, "carla@x.com", "admin", nil)
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, err = Authenticate(users, "Administrador", "admin", nil)
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = Authenticate(users, "carlos", "0000", nil)
	assert.True(t, shared.IsUnauthorized(err))
}

func TestBcryptPolicy(t *testing.T) {
	p := BcryptPolicy{Cost: 4}
	h, err := p.Hash("segredo")
	require.NoError(t, err)
	assert.NotEqual(t, "segredo", h)
	assert.True(t, p.Matches(h, "segredo"))
	assert.False(t, p.Matches(h, "outro"))

	again, err := p.Hash(h)
	require.NoError(t, err)
	assert.Equal(t, h, again)

	// Unhashed legacy values still compare exactly.
	assert.True(t, p.Matches("admin", "admin"))

	users := []User{{ID: "9", Name: "Rita", Password: h}}
	u, err := Authenticate(users, "rita", "segredo", p)
	require.NoError(t, err)
	assert.Equal(t, "9", u.ID)
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, "plain", p.Name())

	p, err = PolicyByName("BCRYPT")
	require.NoError(t, err)
	assert.Equal(t, "bcrypt", p.Name())

	_, err = PolicyByName("md5")
	assert.Error(t, err)
}
