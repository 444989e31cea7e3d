package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr       = "0.0.0.0:4000"
	DefaultRequestTimeout = 10 * time.Minute
	DefaultRateLimitRPS   = 5
	DefaultRateLimitBurst = 10

	DefaultWorldDir     = "./world"
	DefaultSnapshotsDir = "./saves"

	DefaultStopInput    = "stop\n"
	DefaultStopTimeout  = 30 * time.Second
	DefaultKillGrace    = 5 * time.Second
	DefaultStartTimeout = 60 * time.Second
	DefaultWarmup       = 2 * time.Second
	DefaultReleaseDelay = time.Second
	DefaultPollInterval = 100 * time.Millisecond

	DefaultRestartPolicy = "always"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:           DefaultHTTPAddr,
				LegacyRoutes:   true,
				RequestTimeout: DefaultRequestTimeout,
				RateLimit: RateLimitConfig{
					Enabled: false,
					RPS:     DefaultRateLimitRPS,
					Burst:   DefaultRateLimitBurst,
				},
			},
		},
		Storage: StorageSection{
			WorldDir:     DefaultWorldDir,
			SnapshotsDir: DefaultSnapshotsDir,
		},
		Process: ProcessSection{
			Command:      "java",
			Args:         []string{"-Xmx1024M", "-Xms1024M", "-jar", "server.jar", "nogui"},
			MatchPattern: "server.jar",
			StopInput:    DefaultStopInput,
			StopTimeout:  DefaultStopTimeout,
			KillGrace:    DefaultKillGrace,
			StartTimeout: DefaultStartTimeout,
			Warmup:       DefaultWarmup,
			ReleaseDelay: DefaultReleaseDelay,
			PollInterval: DefaultPollInterval,
		},
		Coordinator: CoordinatorSection{
			RestartPolicy: DefaultRestartPolicy,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
