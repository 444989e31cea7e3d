// Package cmap provides a string-keyed map sharded across independently
// locked buckets, for per-client state touched on every request.
package cmap
