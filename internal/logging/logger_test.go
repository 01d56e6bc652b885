package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, mode := range []string{ReleaseMode, "debug", ""} {
		logger, err := New(mode)
		require.NoError(t, err, mode)
		assert.NotNil(t, logger)
	}
}

func TestNewReleaseSkipsDebug(t *testing.T) {
	logger, err := New(ReleaseMode)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = New("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestWithUser(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	WithUser(zap.New(core), 42, "session.photo").Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "session.photo", fields["operation"])
	assert.Equal(t, int64(42), fields["user_id"])
}
