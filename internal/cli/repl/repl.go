package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultPrompt is shown before each line.
const DefaultPrompt = "worldsnap> "

// Executor runs one parsed command line. in is the shell's own input so
// that commands can prompt for confirmation without losing buffered lines.
type Executor func(ctx context.Context, args []string, in io.Reader) error

// Options configures a REPL.
type Options struct {
	Input  io.Reader
	Output io.Writer
	Prompt string
	// HistoryFile persists history between sessions. Empty keeps history in
	// memory only.
	HistoryFile string
	// Commands are the completion candidates, e.g. "snapshot list".
	Commands []string
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	exec      Executor
	input     *bufio.Reader
	output    io.Writer
	prompt    string
	completer *Completer
	history   *History
}

// New creates a new REPL instance.
func New(exec Executor, opts Options) *REPL {
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	if opts.Input == nil {
		opts.Input = strings.NewReader("")
	}
	builtins := []string{"help", "history", "exit", "quit"}
	return &REPL{
		exec:      exec,
		input:     bufio.NewReader(opts.Input),
		output:    opts.Output,
		prompt:    opts.Prompt,
		completer: NewCompleter(append(opts.Commands, builtins...)),
		history:   NewHistory(opts.HistoryFile),
	}
}

// Run reads and executes lines until exit, end of input or ctx is done.
// Command errors are printed and do not end the loop.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "Warning: load history: %v\n", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			fmt.Fprintf(r.output, "Warning: save history: %v\n", err)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(r.output, r.prompt)

		line, err := r.input.ReadString('\n')
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		if done := r.dispatch(ctx, line); done {
			return nil
		}
	}
}

func (r *REPL) dispatch(ctx context.Context, line string) (done bool) {
	args, err := Split(line)
	if err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
		return false
	}

	switch args[0] {
	case "exit", "quit":
		return true
	case "help":
		r.help(strings.Join(args[1:], " "))
		return false
	case "history":
		for i, entry := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
		}
		return false
	}

	if err := r.exec(ctx, args, r.input); err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
		if len(r.completer.Complete(args[0])) == 0 {
			fmt.Fprintln(r.output, "Type 'help' to list commands.")
		}
	}
	return false
}

func (r *REPL) help(prefix string) {
	matches := r.completer.Complete(prefix)
	if len(matches) == 0 {
		fmt.Fprintf(r.output, "No command starts with %q\n", prefix)
		return
	}
	fmt.Fprintln(r.output, "Commands:")
	for _, m := range matches {
		fmt.Fprintf(r.output, "  %s\n", m)
	}
}
