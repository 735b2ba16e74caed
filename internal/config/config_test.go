package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig(slog.Default())
	require.NoError(t, err)

	assert.Equal(t, 3002, cfg.ServerPort)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "TD", cfg.Diagram.DefaultDirection)
	assert.Equal(t, 1048576, cfg.Diagram.MaxSourceBytes)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestNewConfig_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("DIAGRAM_DEFAULT_DIRECTION", "lr")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := NewConfig(slog.Default())
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "LR", cfg.Diagram.DefaultDirection)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "postgres://narrative:secret@db:5432/narrative?sslmode=disable", cfg.Database.DSN())
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad port", "SERVER_PORT", "not-a-number"},
		{"bad direction", "DIAGRAM_DEFAULT_DIRECTION", "sideways"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			cfg, err := NewConfig(slog.Default())
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestDiagramConfig_BodyLimit(t *testing.T) {
	assert.Equal(t, "2048B", (&DiagramConfig{MaxSourceBytes: 2048}).BodyLimit())
	assert.Equal(t, "1M", (&DiagramConfig{}).BodyLimit())
}
