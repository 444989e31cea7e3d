// Package service provides domain services for worldsnap.
//
// The Coordinator sequences the managed game server and the snapshot store
// so the working directory is never copied or replaced while the server is
// writing to it. Every create and restore runs as one critical section:
//
//	Idle -> Stopping -> Operating -> Starting -> Idle
//
// A failed stop returns to Idle without touching the filesystem. A failed
// operation still passes through Starting so the server is brought back.
// A failed restart is reported as a warning next to the primary result.
package service
