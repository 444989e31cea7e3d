package domain

// ServerState is the binary running/stopped signal reported for the managed
// game server.
type ServerState string

const (
	ServerRunning ServerState = "running"
	ServerStopped ServerState = "stopped"
)

// String returns the state as reported to callers.
func (s ServerState) String() string {
	return string(s)
}

// IsRunning reports whether s is ServerRunning.
func (s ServerState) IsRunning() bool {
	return s == ServerRunning
}
