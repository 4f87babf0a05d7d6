package settings

import (
	"testing"

	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestParseClock(t *testing.T) {
	m, err := ParseClock("08:00")
	assert.NoError(t, err)
	assert.Equal(t, 480, m)

	m, err = ParseClock(" 17:45 ")
	assert.NoError(t, err)
	assert.Equal(t, 17*60+45, m)

	for _, bad := range []string{"", "8", "24:00", "12:60", "ab:cd", "12:5", "1:2:3"} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, shared.ErrInvalidClock, bad)
	}
}

func TestDefaultsAreValid(t *testing.T) {
	d := Defaults()
	assert.Equal(t, "08:00", d.WorkStart)
	assert.Equal(t, "17:00", d.WorkEnd)
	assert.Equal(t, "12:00", d.LunchStart)
	assert.Equal(t, "13:00", d.LunchEnd)
	assert.NoError(t, d.Validate())
	assert.False(t, d.RelayConfigured())
}

func TestValidate_RejectsBadSchedules(t *testing.T) {
	s := Defaults()
	s.WorkEnd = "07:00"
	assert.ErrorIs(t, s.Validate(), shared.ErrInvalidSchedule)

	s = Defaults()
	s.LunchStart = "13:30"
	assert.ErrorIs(t, s.Validate(), shared.ErrInvalidSchedule)

	s = Defaults()
	s.WorkStart = "8h"
	err := s.Validate()
	assert.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestRelayConfigured(t *testing.T) {
	s := Defaults()
	s.EmailJSServiceID = "svc"
	s.EmailJSTemplateID = "tpl"
	assert.False(t, s.RelayConfigured())
	s.EmailJSPublicKey = "key"
	assert.True(t, s.RelayConfigured())
}
