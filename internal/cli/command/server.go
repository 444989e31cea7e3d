package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/worldsnap-go/internal/cli/output"
)

type statusResult struct {
	ServerStatus string `json:"server_status" yaml:"server_status"`
}

type healthResult struct {
	Status        string `json:"status" yaml:"status"`
	Time          string `json:"time" yaml:"time"`
	UptimeSeconds int64  `json:"uptime_seconds" yaml:"uptime_seconds"`
}

// ServerCommand returns the server subcommand group.
func ServerCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Control the managed game server",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show whether the game server is running",
				Action: serverAction("GET", "/server/status", ""),
			},
			{
				Name:   "start",
				Usage:  "Start the game server",
				Action: serverAction("POST", "/server/start", "Starting server"),
			},
			{
				Name:   "stop",
				Usage:  "Stop the game server",
				Action: serverAction("POST", "/server/stop", "Stopping server"),
			},
		},
	}
}

func serverAction(method, path, progress string) cli.ActionFunc {
	return func(c *cli.Context) error {
		var res statusResult
		call := func(ctx context.Context) error {
			if method == "GET" {
				return client(c).Get(ctx, path, &res)
			}
			return client(c).Post(ctx, path, nil, &res)
		}

		var err error
		if progress == "" {
			err = call(c.Context)
		} else {
			err = withSpinner(c, progress, call)
		}
		if err != nil {
			return describe(err)
		}
		return renderStatus(c, res)
	}
}

func renderStatus(c *cli.Context, res statusResult) error {
	if settings(c).Output != output.FormatTable {
		return render(c, res, nil)
	}
	_, err := fmt.Fprintf(c.App.Writer, "Server is %s\n", res.ServerStatus)
	return err
}

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check that worldsnap-server is reachable",
		Action: func(c *cli.Context) error {
			var res healthResult
			if err := client(c).Get(c.Context, "/health", &res); err != nil {
				return fmt.Errorf("server unhealthy: %w", err)
			}
			if settings(c).Output != output.FormatTable {
				return render(c, res, nil)
			}
			_, err := fmt.Fprintf(c.App.Writer, "✓ worldsnap-server at %s is %s (up %ds)\n",
				client(c).BaseURL(), res.Status, res.UptimeSeconds)
			return err
		},
	}
}
