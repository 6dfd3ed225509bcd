package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriteAttachesModuleAndDetails(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := wrap(core)

	l.Debug("Relay", "dropped by level", nil)
	l.Info("Relay", "sent", map[string]interface{}{"chatbot_id": "bot_1"})
	l.Error("Relay", "failed", map[string]interface{}{"error": "boom"})

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "Relay", first["module"])
	assert.Equal(t, map[string]interface{}{"chatbot_id": "bot_1"}, first["details"])
	assert.NotContains(t, first, "error_ref")

	assert.Equal(t, "boom", entries[1].ContextMap()["error_ref"])
}

func TestNilDetails(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	wrap(core).Warn("Hub", "no details", nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, map[string]interface{}{}, logs.All()[0].ContextMap()["details"])
}
