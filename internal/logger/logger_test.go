package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	l := New()
	require.Equal(t, logrus.InfoLevel, l.Level)
	require.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
}

func TestNewLevelFromEnv(t *testing.T) {
	tests := []struct {
		env  string
		want logrus.Level
	}{
		{"trace", logrus.TraceLevel},
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"nonsense", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.env)
			require.Equal(t, tt.want, New().Level)
		})
	}
}

func TestNewTextFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "text")
	require.IsType(t, &logrus.TextFormatter{}, New().Formatter)
}
