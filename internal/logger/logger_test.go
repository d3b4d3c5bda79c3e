package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/abhisek/sentcraft/internal/config"
)

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "chatty"})
	assert.Error(t, err)
}

func TestNew_AcceptsMixedCase(t *testing.T) {
	l, err := New(config.LogConfig{Level: " Debug "})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestBuild_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := build("production", zapcore.InfoLevel, zapcore.AddSync(&buf))
	l.Debug("hidden")
	l.Info("set composed", zap.String("set_id", "set_001"))
	require.NoError(t, l.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "set composed", entry["msg"])
	assert.Equal(t, "set_001", entry["set_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestBuild_DevelopmentIsConsole(t *testing.T) {
	var buf bytes.Buffer
	l := build("development", zapcore.InfoLevel, zapcore.AddSync(&buf))
	l.Info("pool exhausted")
	require.NoError(t, l.Sync())
	assert.Contains(t, buf.String(), "pool exhausted")
	assert.NotEqual(t, byte('{'), buf.Bytes()[0])
}
