package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("Order updated", "orderID", "1001", "status", "Confirmed")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"Order updated"`)
	assert.Contains(t, out, `"orderID":"1001"`)
}

func TestInitAndShutdown(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, Init(ctx, false))
	require.NoError(t, Shutdown(ctx))

	require.NoError(t, Init(ctx, true))
	counter, err := Meter("test").Int64Counter("test.counter")
	require.NoError(t, err)
	counter.Add(ctx, 1)
	assert.NoError(t, Shutdown(ctx))
	assert.Empty(t, shutdownFns)
}
