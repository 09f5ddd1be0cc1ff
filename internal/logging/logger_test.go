package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(Config{Level: "loud", Format: "json"})
	require.Error(t, err)

	l, err := NewLogger(Config{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestContextFieldsCarryRequestID(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithRequestID(context.Background(), "req-42")

	tl.Info(ctx, "week loaded", zap.Int64("week", 2910))

	tl.AssertLogged(t, zapcore.InfoLevel, "week loaded")
	entries := tl.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request.id"])
	assert.EqualValues(t, 2910, entries[0].ContextMap()["week"])
}

func TestContextFieldsEmptyWithoutRequestID(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
}
