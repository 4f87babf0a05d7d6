package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, "America/Sao_Paulo", cfg.App.Location.String())
	assert.True(t, cfg.UsesMemoryStore())
	assert.Equal(t, 18, cfg.Scheduler.ReminderCutoffHour)
	assert.Equal(t, "0 3 * * *", cfg.Scheduler.RetentionSchedule)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pontocerto.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  timezone: America/Manaus
http:
  port: 9000
scheduler:
  reminder_interval: 5m
  reminder_cutoff_hour: 20
mail:
  admin_email: gestao@clinica.com
`), 0o600))

	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "America/Manaus", cfg.App.Location.String())
	assert.Equal(t, 9100, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.ReminderInterval)
	assert.Equal(t, 20, cfg.Scheduler.ReminderCutoffHour)
	assert.Equal(t, "gestao@clinica.com", cfg.Mail.AdminEmail)
	assert.True(t, cfg.Redis.Enabled)
	// Untouched defaults survive the overlay.
	assert.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadTimezone(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	_, err := Load("")
	assert.ErrorContains(t, err, "Mars/Olympus")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.App.Environment = EnvProduction
	cfg.Scheduler.ReminderCutoffHour = 25
	cfg.Security.PasswordPolicy = "md5"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required in production")
	assert.Contains(t, err.Error(), "SCHEDULER_REMINDER_HOUR")
	assert.Contains(t, err.Error(), "PASSWORD_POLICY")
}

func TestGetEnvSlice(t *testing.T) {
	t.Setenv("HTTP_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, getEnvSlice("HTTP_ALLOWED_ORIGINS", nil))
	assert.Equal(t, []string{"*"}, getEnvSlice("UNSET_VARIABLE_FOR_TEST", []string{"*"}))
}
