// Package command defines the worldsnap-cli commands.
//
// It uses urfave/cli/v2. Every command talks to worldsnap-server over HTTP
// through the connection package and prints results with the output
// package.
package command
