package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "")
	configPath = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandTree(t *testing.T) {
	paths := [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
		{"backup", "export"},
		{"backup", "import"},
		{"staff", "list"},
		{"staff", "import"},
		{"report"},
		{"remind"},
	}
	for _, p := range paths {
		cmd, _, err := rootCmd.Find(p)
		require.NoError(t, err, p)
		assert.Equal(t, p[len(p)-1], cmd.Name())
	}
}

func TestCommandsRequireDatabase(t *testing.T) {
	for _, args := range [][]string{
		{"backup", "export"},
		{"staff", "list"},
		{"remind"},
		{"migrate", "status"},
	} {
		_, err := execute(t, args...)
		assert.ErrorIs(t, err, errNoDatabase, args)
	}
}

func TestReport_RejectsBadDates(t *testing.T) {
	t.Cleanup(func() { reportStart = "" })
	_, err := execute(t, "report", "1", "--start", "04/03/2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestRemind_RejectsBadInstant(t *testing.T) {
	t.Cleanup(func() { remindAt = "" })
	_, err := execute(t, "remind", "--at", "tomorrow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --at")
}

func TestArgsValidation(t *testing.T) {
	_, err := execute(t, "backup", "import")
	assert.Error(t, err)
}
