package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ludo-technologies/sdlcguard/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	ctx := WithRunID(context.Background(), "run-123")
	logger.Debug(ctx, "hidden")
	logger.Info(ctx, "check finished", zap.String("check", "branch-compliance"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"check finished"`)
	assert.Contains(t, out, `"run_id":"run-123"`)
	assert.Contains(t, out, `"ts":`)
}

func TestNewLoggerWithWriter_InvalidLevel(t *testing.T) {
	_, err := NewLoggerWithWriter(config.LoggingConfig{Level: "loud", Format: "console"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestConsoleEncoder(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerWithWriter(config.LoggingConfig{Level: "warn", Format: "console"}, &buf)
	require.NoError(t, err)

	logger.Warn(context.Background(), "tool missing")
	assert.True(t, strings.Contains(buf.String(), "WARN"))
}

func TestTestLogger(t *testing.T) {
	logger := NewTestLogger()
	ctx := WithRunID(context.Background(), "abc")

	logger.Named("pipeline").Warn(ctx, "level file malformed", zap.String("path", ".sdlc/level.json"))

	logger.AssertLogged(t, zapcore.WarnLevel, "malformed")
	logger.AssertField(t, "level file malformed", "run_id", "abc")
	logger.AssertField(t, "level file malformed", "path", ".sdlc/level.json")
	assert.True(t, logger.Enabled(zapcore.DebugLevel))
}

func TestRunIDFromContext_Empty(t *testing.T) {
	assert.Empty(t, RunIDFromContext(context.Background()))
	assert.Nil(t, ContextFields(context.Background()))
}
