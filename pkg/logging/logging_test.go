package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	logger, err := New(&Config{Level: "warn", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	logger, err = New(nil)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(&Config{Level: "loud", Format: "json"})
	assert.ErrorContains(t, err, "log level")

	_, err = New(&Config{Level: "info", Format: "xml"})
	assert.ErrorContains(t, err, "log format")
}
