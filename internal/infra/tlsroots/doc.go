// Package tlsroots provides TLS certificate handling for worldsnap.
//
//   - roots.go: trust pools for the CLI when the server uses a private CA
//   - reloader.go: server certificate hot reload via fsnotify
package tlsroots
