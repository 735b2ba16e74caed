package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope(t *testing.T) {
	tests := []struct {
		name  string
		scope string
	}{
		{"basic scope", "graphs"},
		{"nested scope", "graphs.sync"},
		{"empty scope", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attr := Scope(tt.scope)
			assert.Equal(t, "scope", attr.Key)
			assert.Equal(t, tt.scope, attr.Value.String())
		})
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"simple error", errors.New("something went wrong")},
		{"nil error", nil},
		{"joined error", errors.Join(errors.New("outer"), errors.New("inner"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attr := Error(tt.err)
			assert.Equal(t, "error", attr.Key)
			assert.Equal(t, tt.err, attr.Value.Any())
		})
	}
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		value    string
		enabled  slog.Level
		disabled *slog.Level
	}{
		{"", slog.LevelInfo, levelPtr(slog.LevelDebug)},
		{"debug", slog.LevelDebug, nil},
		{"DEBUG", slog.LevelDebug, nil},
		{"dEbUg", slog.LevelDebug, nil},
		{"info", slog.LevelInfo, levelPtr(slog.LevelDebug)},
		{"warn", slog.LevelWarn, levelPtr(slog.LevelInfo)},
		{"warning", slog.LevelWarn, levelPtr(slog.LevelInfo)},
		{"error", slog.LevelError, levelPtr(slog.LevelWarn)},
		{"invalid", slog.LevelInfo, levelPtr(slog.LevelDebug)},
	}

	for _, tt := range tests {
		t.Run("LOG_LEVEL="+tt.value, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.value)
			t.Setenv("GO_ENV", "")

			log := NewLogger()
			require.NotNil(t, log)

			ctx := context.Background()
			assert.True(t, log.Enabled(ctx, tt.enabled))
			if tt.disabled != nil {
				assert.False(t, log.Enabled(ctx, *tt.disabled))
			}
		})
	}
}

func TestNewLogger_ProductionJSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("GO_ENV", "production")

	log := NewLogger()
	require.NotNil(t, log)

	_, isJSON := log.Handler().(*slog.JSONHandler)
	assert.True(t, isJSON)
	assert.True(t, log.Enabled(context.Background(), slog.LevelInfo))
}

func levelPtr(l slog.Level) *slog.Level { return &l }
