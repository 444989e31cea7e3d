// Package process owns the single managed game-server process.
//
// A Controller spawns the configured command, tracks its handle and stops
// it by writing a graceful-shutdown line to its stdin. Because the handle
// is lost when worldsnap itself restarts, Status and Stop also reconcile
// with the operating system: a Finder scans /proc for command lines that
// contain the configured match pattern.
//
// Waiting is done with bounded poll loops instead of fixed sleeps:
//
//   - Start returns once the process has stayed alive for the warm-up
//     period and, when configured, accepts TCP connections on ReadyAddr.
//   - Stop returns once no matching process remains, followed by a short
//     release delay so file handles on the working directory are closed.
package process
