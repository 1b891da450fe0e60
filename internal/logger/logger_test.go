package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize_WithoutSentry(t *testing.T) {
	restore := Replace(zap.NewNop())
	defer restore()

	require.NoError(t, Initialize(Config{Debug: true}))
	assert.NotNil(t, Default())
	assert.True(t, Default().Core().Enabled(zapcore.DebugLevel))
}

func TestHelpers_WriteThroughGlobalLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := Replace(zap.New(core))
	defer restore()

	Info("started", zap.Int64("fid", 16098))
	InfoCtx(context.Background(), "ctx info")
	Warn("careful")
	Debug("details")
	Error(errors.New("boom"))
	Error(nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 6)
	assert.Equal(t, "started", entries[0].Message)
	assert.Equal(t, int64(16098), entries[0].ContextMap()["fid"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "boom", entries[4].Message)
	assert.Equal(t, "error occurred", entries[5].Message)
}

func TestReplace_Restores(t *testing.T) {
	original := Default()
	restore := Replace(zap.NewExample())
	assert.NotSame(t, original, Default())
	restore()
	assert.Same(t, original, Default())
}
