package config

import "time"

// CLIConfig is the configuration for worldsnap-cli.
type CLIConfig struct {
	// Server is the worldsnap-server address.
	Server string `yaml:"server"`
	// Output is the default output format (table, json, yaml).
	Output string `yaml:"output"`
	// Timeout bounds each request.
	Timeout time.Duration `yaml:"timeout"`
	// CAFile is a PEM bundle trusted for https servers in addition to the
	// system roots.
	CAFile string `yaml:"ca_file,omitempty"`
}

// Default CLI settings.
const (
	DefaultServer  = "localhost:4000"
	DefaultOutput  = "table"
	DefaultTimeout = 15 * time.Minute
)

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  DefaultServer,
		Output:  DefaultOutput,
		Timeout: DefaultTimeout,
	}
}
