package ruleexpr

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContext(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		ctx := NewContext(context.Background())
		assert.Same(t, slog.Default(), ctx.Logger())
		assert.Len(t, ctx.RunID(), 36)
		assert.Empty(t, ctx.Rule())
		assert.NotEqual(t, ctx.RunID(), NewContext(context.Background()).RunID())
	})

	t.Run("options", func(t *testing.T) {
		logger := slog.New(newTestLogHandler())
		ctx := NewContext(context.Background(), WithLogger(logger), WithRunID("run-1"))
		assert.Same(t, logger, ctx.Logger())
		assert.Equal(t, "run-1", ctx.RunID())
	})

	t.Run("zero options ignored", func(t *testing.T) {
		ctx := NewContext(context.Background(), WithLogger(nil), WithRunID(""))
		assert.NotNil(t, ctx.Logger())
		assert.NotEmpty(t, ctx.RunID())
	})

	t.Run("embeds the standard context", func(t *testing.T) {
		parent, cancel := context.WithCancel(context.Background())
		ctx := NewContext(parent)
		cancel()
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	})
}

func TestWithRule(t *testing.T) {
	handler := newTestLogHandler()
	base := NewContext(context.Background(), WithLogger(slog.New(handler)), WithRunID("run-2"))

	parent, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	ruleCtx := withRule(base, parent, "disk_full")
	assert.Equal(t, "disk_full", ruleCtx.Rule())
	assert.Equal(t, "run-2", ruleCtx.RunID())
	_, ok := ruleCtx.Deadline()
	assert.True(t, ok)

	ruleCtx.Logger().Info("probing")
	records := withMessage(handler.getRecords(), "probing")
	require.Len(t, records, 1)
	assert.Equal(t, "run-2", records[0]["run_id"])
	assert.Equal(t, "disk_full", records[0]["rule"])
}
