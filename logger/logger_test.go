package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNamed(t *testing.T) {
	lggr := Test(t).Named("dataset")
	assert.Equal(t, "dataset", lggr.Name())
	assert.Equal(t, "dataset.sqlite", lggr.Named("sqlite").Name())
}

func TestObservedLevels(t *testing.T) {
	lggr, logs := TestObserved(t, zapcore.WarnLevel)

	lggr.Debugw("dropped rows", "count", 3)
	lggr.Warnw("reference drift", "year", 2012)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "reference drift", entries[0].Message)
	assert.Equal(t, int64(2012), entries[0].ContextMap()["year"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("chatty"))
}

func TestNop(t *testing.T) {
	lggr := Nop()
	lggr.Infow("ignored", "k", "v")
	assert.NoError(t, lggr.Sync())
}
