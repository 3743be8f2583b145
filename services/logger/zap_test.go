package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/shule/core/user"
)

func TestZapLogger_fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(core))

	usr := user.User{ID: 7, Username: "teacher1"}
	l.Error("request failed", errors.New("boom"), map[string]interface{}{"path": "/teacher/attendance"}, usr, 42)
	l.Debug("access denied")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	fields := entries[0].ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "request failed", entries[0].Message)
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, "/teacher/attendance", fields["path"])
	assert.Equal(t, int64(7), fields["user_id"])
	assert.Equal(t, "teacher1", fields["username"])
	assert.Equal(t, int64(42), fields["arg3"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Empty(t, entries[1].Context)
}

func TestNewZap_level(t *testing.T) {
	tests := []struct {
		level string
		env   string
		want  zapcore.Level
	}{
		{level: "debug", env: "DEV", want: zapcore.DebugLevel},
		{level: "WARN", env: "PROD", want: zapcore.WarnLevel},
		{level: "loud", env: "DEV", want: zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			z, err := NewZap(tt.level, tt.env)
			require.NoError(t, err)
			assert.True(t, z.Core().Enabled(tt.want))
			assert.False(t, z.Core().Enabled(tt.want-1))
		})
	}
}
