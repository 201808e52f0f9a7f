package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldsAreForwarded(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(zap.NewNop()) })

	Warn("store slow", map[string]any{
		"vendor_id": "v-1",
		"error":     errors.New("timeout"),
	})
	Debug("no fields", nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "store slow", entries[0].Message)
	assert.Equal(t, "v-1", ctx["vendor_id"])
	assert.Equal(t, "timeout", ctx["error"])
	assert.Empty(t, entries[1].Context)
}
