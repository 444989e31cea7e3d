// Package domain defines the core domain values for worldsnap.
//
// It holds no IO and no framework coupling:
//
//   - ServerState: the running/stopped signal of the managed game server
//   - Snapshot: metadata of a stored world snapshot
//   - Errors: structured error codes shared by every layer
package domain
