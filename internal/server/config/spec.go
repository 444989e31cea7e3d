package config

import "time"

// ServerConfig is the root configuration for worldsnap-server.
type ServerConfig struct {
	Server      ServerSection      `koanf:"server"`
	Storage     StorageSection     `koanf:"storage"`
	Process     ProcessSection     `koanf:"process"`
	Coordinator CoordinatorSection `koanf:"coordinator"`
	Log         LogSection         `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// CORSOrigins lists allowed browser origins. "*" allows any.
	CORSOrigins []string `koanf:"cors_origins"`

	// LegacyRoutes exposes the GET-only compatibility routes
	// (/create-backup, /restore/{name}, ...).
	LegacyRoutes bool `koanf:"legacy_routes"`

	RateLimit RateLimitConfig `koanf:"rate_limit"`

	// RequestTimeout bounds how long a request waits for another snapshot
	// operation to finish before failing with a busy error.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// RateLimitConfig configures per-client request rate limiting.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// StorageSection configures the working directory and snapshots.
type StorageSection struct {
	WorldDir     string `koanf:"world_dir"`
	SnapshotsDir string `koanf:"snapshots_dir"`
	// StagingDir holds restore staging trees. Empty uses the parent of
	// WorldDir.
	StagingDir string `koanf:"staging_dir"`
}

// ProcessSection configures the managed game server.
type ProcessSection struct {
	Command string   `koanf:"command"`
	Args    []string `koanf:"args"`
	Dir     string   `koanf:"dir"`
	Env     []string `koanf:"env"`

	MatchPattern string `koanf:"match_pattern"`
	StopInput    string `koanf:"stop_input"`
	ReadyAddr    string `koanf:"ready_addr"`
	LogFile      string `koanf:"log_file"`
	ProcRoot     string `koanf:"proc_root"`

	StopTimeout  time.Duration `koanf:"stop_timeout"`
	KillGrace    time.Duration `koanf:"kill_grace"`
	StartTimeout time.Duration `koanf:"start_timeout"`
	Warmup       time.Duration `koanf:"warmup"`
	ReleaseDelay time.Duration `koanf:"release_delay"`
	PollInterval time.Duration `koanf:"poll_interval"`

	// Autostart starts the server when worldsnap starts.
	Autostart bool `koanf:"autostart"`
	// StopOnExit stops the server when worldsnap shuts down.
	StopOnExit bool `koanf:"stop_on_exit"`
}

// CoordinatorSection configures snapshot sequencing.
type CoordinatorSection struct {
	// RestartPolicy is "always" or "previous".
	RestartPolicy string `koanf:"restart_policy"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
