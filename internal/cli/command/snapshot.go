package command

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/worldsnap-go/internal/cli/output"
)

// snapshotInfo mirrors the server's snapshot description.
type snapshotInfo struct {
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
}

type listResult struct {
	Snapshots    []snapshotInfo `json:"snapshots" yaml:"snapshots"`
	Count        int            `json:"count" yaml:"count"`
	ServerStatus string         `json:"server_status" yaml:"server_status"`
}

type opResult struct {
	Snapshot       snapshotInfo `json:"snapshot" yaml:"snapshot"`
	SafetySnapshot string       `json:"safety_snapshot,omitempty" yaml:"safety_snapshot,omitempty"`
	ServerStatus   string       `json:"server_status" yaml:"server_status"`
	RestartWarning string       `json:"restart_warning,omitempty" yaml:"restart_warning,omitempty"`
}

// SnapshotCommand returns the snapshot subcommand group.
func SnapshotCommand() *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Aliases: []string{"snap"},
		Usage:   "List, create and restore world snapshots",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List snapshots, newest name first",
				Action:  snapshotList,
			},
			{
				Name:      "create",
				Usage:     "Stop the server, snapshot the world and start the server again",
				ArgsUsage: "[NAME]",
				Action:    snapshotCreate,
			},
			{
				Name:      "restore",
				Usage:     "Replace the world with a snapshot (the current world is saved first)",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Do not ask for confirmation",
					},
				},
				Action: snapshotRestore,
			},
		},
	}
}

func snapshotList(c *cli.Context) error {
	var res listResult
	if err := client(c).Get(c.Context, "/snapshots", &res); err != nil {
		return describe(err)
	}

	table := &output.Table{Headers: []string{"NAME", "CREATED"}}
	for _, s := range res.Snapshots {
		created := "-"
		if !s.CreatedAt.IsZero() {
			created = s.CreatedAt.Local().Format(time.DateTime)
		}
		table.AddRow(s.Name, created)
	}
	if err := render(c, res, table); err != nil {
		return err
	}
	if settings(c).Output == output.FormatTable {
		fmt.Fprintf(c.App.Writer, "\n%d snapshot(s), server %s\n", res.Count, res.ServerStatus)
	}
	return nil
}

func snapshotCreate(c *cli.Context) error {
	if c.NArg() > 1 {
		return fmt.Errorf("create takes at most one NAME argument")
	}
	var body any
	if name := c.Args().First(); name != "" {
		body = map[string]string{"name": name}
	}

	var res opResult
	err := withSpinner(c, "Creating snapshot", func(ctx context.Context) error {
		return client(c).Post(ctx, "/snapshots", body, &res)
	})
	if err != nil {
		return describe(err)
	}
	return renderOp(c, "Created", res)
}

func snapshotRestore(c *cli.Context) error {
	name := c.Args().First()
	if name == "" || c.NArg() != 1 {
		return fmt.Errorf("restore requires exactly one NAME argument")
	}

	if !c.Bool("yes") {
		ok, err := confirm(c, fmt.Sprintf("Replace the world with snapshot %q? The server will be restarted. [y/N] ", name))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(c.App.Writer, "Aborted.")
			return nil
		}
	}

	var res opResult
	err := withSpinner(c, "Restoring "+name, func(ctx context.Context) error {
		return client(c).Post(ctx, "/snapshots/"+url.PathEscape(name)+"/restore", nil, &res)
	})
	if err != nil {
		return describe(err)
	}
	return renderOp(c, "Restored", res)
}

func renderOp(c *cli.Context, verb string, res opResult) error {
	if settings(c).Output != output.FormatTable {
		return render(c, res, nil)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%s snapshot %s\n", verb, res.Snapshot.Name)
	if res.SafetySnapshot != "" {
		fmt.Fprintf(w, "Previous world saved as %s\n", res.SafetySnapshot)
	}
	fmt.Fprintf(w, "Server is %s\n", res.ServerStatus)
	if res.RestartWarning != "" {
		fmt.Fprintf(w, "Warning: server restart failed: %s\n", res.RestartWarning)
	}
	return nil
}

func confirm(c *cli.Context, prompt string) (bool, error) {
	fmt.Fprint(c.App.Writer, prompt)
	if c.App.Reader == nil {
		return false, nil
	}
	line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	if b, err := strconv.ParseBool(answer); err == nil {
		return b, nil
	}
	return answer == "y" || answer == "yes", nil
}
