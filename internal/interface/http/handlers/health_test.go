package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeHealthChecker_DetailsDoNotAffectReadiness(t *testing.T) {
	c := NewCompositeHealthChecker("test")
	c.AddCheck("database", func(context.Context) error { return nil })
	c.AddOptionalCheck("cache", func(context.Context) error { return errors.New("dial tcp: refused") })
	c.AddDetails("pool", func(context.Context) any { return map[string]int{"idle": 2} })

	status := c.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.True(t, status.Ready)
	assert.Equal(t, "Some checks failed: cache", status.Message)
	require.Contains(t, status.Details, "pool")
	assert.Equal(t, map[string]int{"idle": 2}, status.Details["pool"])
}

func TestCompositeHealthChecker_DetailsWithoutChecks(t *testing.T) {
	c := NewCompositeHealthChecker("test")
	c.AddDetails("events", func(context.Context) any { return 3 })

	status := c.Check(context.Background())
	assert.True(t, status.Ready)
	assert.Equal(t, 3, status.Details["events"])

	assert.Nil(t, NewCompositeHealthChecker("test").Check(context.Background()).Details)
}
