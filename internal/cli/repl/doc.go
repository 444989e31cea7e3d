// Package repl provides the interactive shell of worldsnap-cli.
//
//   - repl.go: read loop, built-in commands and dispatch
//   - split.go: shell-like splitting of an input line
//   - completer.go: prefix matching over known commands
//   - history.go: command history persistence
package repl
