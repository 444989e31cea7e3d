package repl

import (
	"slices"
	"strings"
)

// Completer matches input prefixes against known commands.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over commands, sorted and deduplicated.
func NewCompleter(commands []string) *Completer {
	cmds := slices.Clone(commands)
	slices.Sort(cmds)
	return &Completer{commands: slices.Compact(cmds)}
}

// Complete returns the commands starting with prefix. Runs of whitespace in
// prefix match a single space.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.Join(strings.Fields(prefix), " ")
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
