package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes a fresh command tree and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand_Flags(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)

	tests := []struct {
		name     string
		typ      string
		defValue string
	}{
		{"server", "string", defaultServer},
		{"output", "string", formatJSON},
		{"config", "string", ""},
		{"timeout", "duration", "30s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := cmd.PersistentFlags().Lookup(tt.name)
			require.NotNil(t, f, "--%s should be registered", tt.name)
			assert.Equal(t, tt.typ, f.Value.Type())
			assert.Equal(t, tt.defValue, f.DefValue)
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()
	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"parse", "format", "export", "sync"})
}

func TestOptions_Precedence(t *testing.T) {
	cfg := writeFile(t, "config.yaml", "server: http://from-file:1\noutput: yaml\n")

	t.Run("config file", func(t *testing.T) {
		opts := optionsOf(t, "--config", cfg)
		assert.Equal(t, "http://from-file:1", opts.server())
		assert.Equal(t, formatYAML, opts.output())
	})

	t.Run("environment beats config file", func(t *testing.T) {
		t.Setenv("DIAGRAMCTL_SERVER", "http://from-env:2")
		opts := optionsOf(t, "--config", cfg)
		assert.Equal(t, "http://from-env:2", opts.server())
	})

	t.Run("flag beats environment", func(t *testing.T) {
		t.Setenv("DIAGRAMCTL_SERVER", "http://from-env:2")
		opts := optionsOf(t, "--config", cfg, "--server", "http://from-flag:3")
		assert.Equal(t, "http://from-flag:3", opts.server())
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := run(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "format", "-")
		assert.Error(t, err)
	})
}

// optionsOf parses flags and loads configuration without running a command.
func optionsOf(t *testing.T, args ...string) *options {
	t.Helper()
	cmd, opts := newRootCommand()
	cmd.AddCommand(&cobra.Command{
		Use:  "noop",
		RunE: func(*cobra.Command, []string) error { return nil },
	})
	cmd.SetArgs(append(args, "noop"))
	require.NoError(t, cmd.Execute())
	return opts
}
