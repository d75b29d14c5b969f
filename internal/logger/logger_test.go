package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("nonsense"))
}

func TestNew(t *testing.T) {
	l, err := New(Config{Level: "warn", Stage: ProdEnvironment})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = New(Config{Level: "debug", Stage: "dev"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestInit(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	require.NoError(t, Init(Config{Level: "error", Stage: "dev"}))
	assert.NotSame(t, prev, Log)
	assert.False(t, Log.Core().Enabled(zapcore.WarnLevel))
}
