package command

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/worldsnap-go/internal/cli/config"
	"github.com/yndnr/worldsnap-go/internal/cli/connection"
	"github.com/yndnr/worldsnap-go/internal/cli/output"
	"github.com/yndnr/worldsnap-go/internal/infra/buildinfo"
	"github.com/yndnr/worldsnap-go/internal/infra/tlsroots"
)

const settingsKey = "settings"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "worldsnap-cli",
		Usage:   "Snapshot and restore a game server world through worldsnap-server",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			SnapshotCommand(),
			ServerCommand(),
			HealthCommand(),
			ShellCommand(),
		},
		Before:   loadSettings,
		Metadata: map[string]any{},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file",
			EnvVars: []string{"WORLDSNAP_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "worldsnap-server address (e.g., localhost:4000)",
			EnvVars: []string{"WORLDSNAP_CLI_SERVER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "PEM bundle to trust for an https server",
			EnvVars: []string{"WORLDSNAP_CLI_CA_FILE"},
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Do not show progress while waiting",
		},
	}
}

// Settings are the resolved global options: flags over environment over
// the config file over defaults.
type Settings struct {
	Server  string
	Output  output.Format
	Timeout time.Duration
	Quiet   bool
	CAFile  string

	tlsConfig *tls.Config
}

func loadSettings(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	s := &Settings{
		Server:  cfg.Server,
		Timeout: cfg.Timeout,
		Quiet:   c.Bool("quiet"),
		CAFile:  cfg.CAFile,
	}
	if c.IsSet("server") {
		s.Server = c.String("server")
	}
	if c.IsSet("ca-file") {
		s.CAFile = c.String("ca-file")
	}
	if s.CAFile != "" {
		if s.tlsConfig, err = tlsroots.ClientConfig(s.CAFile); err != nil {
			return err
		}
	}
	if c.IsSet("timeout") {
		s.Timeout = c.Duration("timeout")
	}
	format := cfg.Output
	if c.IsSet("output") {
		format = c.String("output")
	}
	if s.Output, err = output.ParseFormat(format); err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[settingsKey] = s
	return nil
}

func settings(c *cli.Context) *Settings {
	if s, ok := c.App.Metadata[settingsKey].(*Settings); ok {
		return s
	}
	return &Settings{Server: config.DefaultServer, Output: output.FormatTable, Timeout: config.DefaultTimeout}
}

func client(c *cli.Context) *connection.HTTPClient {
	s := settings(c)
	var opts []connection.ClientOption
	if s.tlsConfig != nil {
		opts = append(opts, connection.WithTLSConfig(s.tlsConfig))
	}
	return connection.NewHTTPClient(s.Server, s.Timeout, opts...)
}

// render prints data in the chosen format. Table output uses table, which
// may be nil to fall back to data.
func render(c *cli.Context, data any, table *output.Table) error {
	s := settings(c)
	if s.Output == output.FormatTable && table != nil {
		return table.Render(c.App.Writer)
	}
	return output.NewFormatter(s.Output).Format(c.App.Writer, data)
}

// withSpinner runs fn while a spinner runs on stderr, for table output only.
func withSpinner(c *cli.Context, message string, fn func(context.Context) error) error {
	s := settings(c)
	var spin *output.Spinner
	if !s.Quiet && s.Output == output.FormatTable {
		spin = output.NewSpinner(errWriter(c), message)
		spin.Start()
	}

	err := fn(c.Context)

	if spin != nil {
		spin.Stop()
	}
	return err
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return io.Discard
}

// describe annotates server errors with the reported server state.
func describe(err error) error {
	var apiErr *connection.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.SafetySnapshot != "" {
		err = fmt.Errorf("%w; previous world saved as %s", err, apiErr.SafetySnapshot)
	}
	if apiErr.RestartWarning != "" {
		err = fmt.Errorf("%w; restart failed: %s", err, apiErr.RestartWarning)
	}
	if apiErr.ServerStatus != "" {
		err = fmt.Errorf("%w (server is %s)", err, apiErr.ServerStatus)
	}
	return err
}
