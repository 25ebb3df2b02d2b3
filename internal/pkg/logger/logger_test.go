package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	log, err := New("warn")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	log, err = New("not-a-level")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))

	log, err = New("debug")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestForSession_AddsField(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ForSession(zap.New(core), "s-1").Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "s-1", logs.All()[0].ContextMap()["session_id"])
}

func TestForSession_NilBase(t *testing.T) {
	assert.NotPanics(t, func() { ForSession(nil, "s-2").Info("noop") })
}
