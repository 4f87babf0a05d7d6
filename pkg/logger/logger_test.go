package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{
		Output: &buf,
		Level:  slog.LevelInfo,
		Format: ParseFormat("JSON"),
		Attrs:  []slog.Attr{slog.String("service", "pontocerto")},
	})

	log.Debug("hidden")
	log.Info("punch recorded", UserID("u1"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "punch recorded", line["msg"])
	assert.Equal(t, "pontocerto", line["service"])
	assert.Equal(t, "u1", line["user_id"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Output: &buf, Format: ParseFormat("whatever")}).Warn("slow", Component("mailer"))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "component=mailer")
}

func TestContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	l := Discard().With(RequestID("r1"))
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}
