package config

import (
	"slices"
	"strings"
)

// sensitiveEnvKeys marks process environment entries whose value is masked
// when the configuration is logged.
var sensitiveEnvKeys = []string{"PASSWORD", "SECRET", "TOKEN", "KEY"}

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Process.Args = slices.Clone(cfg.Process.Args)

	if len(cfg.Process.Env) > 0 {
		env := make([]string, len(cfg.Process.Env))
		for i, kv := range cfg.Process.Env {
			k, v, ok := strings.Cut(kv, "=")
			if ok && isSensitive(k) {
				kv = k + "=" + maskSecret(v)
			}
			env[i] = kv
		}
		sanitized.Process.Env = env
	}

	return &sanitized
}

func isSensitive(key string) bool {
	upper := strings.ToUpper(key)
	for _, s := range sensitiveEnvKeys {
		if strings.Contains(upper, s) {
			return true
		}
	}
	return false
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
