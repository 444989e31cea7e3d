package command

import (
	"context"
	"errors"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/worldsnap-go/internal/cli/repl"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Run commands interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "History file (empty disables persistence)",
				Value: repl.DefaultHistoryFile(),
			},
		},
		Action: runShell,
	}
}

func runShell(c *cli.Context) error {
	s := settings(c)
	base := []string{
		c.App.Name,
		"--config", c.String("config"),
		"--server", s.Server,
		"--output", string(s.Output),
		"--timeout", s.Timeout.String(),
	}
	if s.Quiet {
		base = append(base, "--quiet")
	}
	if s.CAFile != "" {
		base = append(base, "--ca-file", s.CAFile)
	}

	exec := func(ctx context.Context, args []string, in io.Reader) error {
		if args[0] == "shell" {
			return errors.New("already in the shell")
		}
		app := App()
		app.Writer = c.App.Writer
		app.ErrWriter = c.App.ErrWriter
		app.Reader = in
		app.ExitErrHandler = func(*cli.Context, error) {}
		return app.RunContext(ctx, append(base[:len(base):len(base)], args...))
	}

	return repl.New(exec, repl.Options{
		Input:       c.App.Reader,
		Output:      c.App.Writer,
		HistoryFile: c.String("history"),
		Commands:    commandPaths(c.App.Commands, ""),
	}).Run(c.Context)
}

// commandPaths flattens a command tree into "parent child" names.
func commandPaths(cmds []*cli.Command, prefix string) []string {
	var paths []string
	for _, cmd := range cmds {
		if cmd.Hidden || cmd.Name == "shell" {
			continue
		}
		name := cmd.Name
		if prefix != "" {
			name = prefix + " " + name
		}
		paths = append(paths, name)
		paths = append(paths, commandPaths(cmd.Subcommands, name)...)
	}
	return paths
}
