// Package main provides the entry point for worldsnap-server.
//
// worldsnap-server supervises a game server process and keeps named
// snapshots of its world directory. It serves an HTTP API to list, create
// and restore snapshots and to start, stop and query the game server.
//
// Usage:
//
//	worldsnap-server --config /etc/worldsnap/server.yaml
//	worldsnap-server --version
//
// Every config key can be overridden from the environment, e.g.
// WORLDSNAP_PROCESS_STOP_TIMEOUT=90s or WORLDSNAP_SERVER_HTTP_ADDR=:8080.
package main
