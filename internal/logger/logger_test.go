package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs(t *testing.T) {
	out := sanitizeKVs([]interface{}{"user_id", 7, "password", "hunter2", "jwt_token", "abc", "dangling"})
	assert.Equal(t, []interface{}{"user_id", 7, "password", "[REDACTED]", "jwt_token", "[REDACTED]", "dangling"}, out)
}

func TestLogger_RedactsFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "test").Info("signed in", "user_id", 3, "password", "secret!")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "test", fields["component"])
	assert.Equal(t, "[REDACTED]", fields["password"])
	assert.EqualValues(t, 3, fields["user_id"])
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"production", "development"} {
		l, err := New(mode)
		require.NoError(t, err)
		assert.NotNil(t, l.SugaredLogger)
	}
}
