// Package cli implements the diagramctl command tree.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultServer  = "http://localhost:3002"
	defaultTimeout = 30 * time.Second
)

// options carries the resolved global settings of one invocation.
type options struct {
	v       *viper.Viper
	cfgFile string
}

func (o *options) server() string { return o.v.GetString("server") }
func (o *options) output() string { return o.v.GetString("output") }
func (o *options) timeout() time.Duration {
	if d := o.v.GetDuration("timeout"); d > 0 {
		return d
	}
	return defaultTimeout
}

// NewRootCommand builds a fresh command tree. Each call gets its own viper
// instance so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *options) {
	opts := &options{v: viper.New()}

	root := &cobra.Command{
		Use:   "diagramctl",
		Short: "Work with narrative flowchart diagrams",
		Long: `Command-line tool for narrative graph diagrams.

parse and format work on local files. export and sync talk to a running
server, selected with --server or DIAGRAMCTL_SERVER.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.diagramctl/config.yaml)")
	flags.String("server", defaultServer, "narrative server URL")
	flags.StringP("output", "o", formatJSON, "output format (json, yaml, table)")
	flags.Duration("timeout", defaultTimeout, "request timeout")

	_ = opts.v.BindPFlag("server", flags.Lookup("server"))
	_ = opts.v.BindPFlag("output", flags.Lookup("output"))
	_ = opts.v.BindPFlag("timeout", flags.Lookup("timeout"))

	root.AddCommand(
		newParseCmd(opts),
		newFormatCmd(opts),
		newExportCmd(opts),
		newSyncCmd(opts),
	)
	return root, opts
}

// Execute runs diagramctl with the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

func (o *options) load() error {
	o.v.SetEnvPrefix("DIAGRAMCTL")
	o.v.AutomaticEnv()

	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
		if err := o.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	o.v.AddConfigPath(filepath.Join(home, ".diagramctl"))
	o.v.SetConfigName("config")
	o.v.SetConfigType("yaml")
	// a missing default config file is fine
	_ = o.v.ReadInConfig()
	return nil
}

func readSource(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
