package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyStorage(&cfg.Storage),
		verifyProcess(&cfg.Process),
		verifyCoordinator(&cfg.Coordinator),
		verifyLog(&cfg.Log),
	)
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr %q: %w", cfg.HTTP.Addr, err)
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("server.http tls file: %w", err)
		}
	}
	if cfg.HTTP.RateLimit.Enabled && (cfg.HTTP.RateLimit.RPS <= 0 || cfg.HTTP.RateLimit.Burst < 1) {
		return errors.New("server.http.rate_limit: rps must be positive and burst at least 1")
	}
	if cfg.HTTP.RequestTimeout < 0 {
		return errors.New("server.http.request_timeout must not be negative")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.WorldDir == "" {
		return errors.New("storage.world_dir is required")
	}
	if cfg.SnapshotsDir == "" {
		return errors.New("storage.snapshots_dir is required")
	}
	return nil
}

func verifyProcess(cfg *ProcessSection) error {
	if strings.TrimSpace(cfg.Command) == "" {
		return errors.New("process.command is required")
	}
	if cfg.StopTimeout <= 0 {
		return errors.New("process.stop_timeout must be positive")
	}
	if cfg.KillGrace <= 0 {
		return errors.New("process.kill_grace must be positive")
	}
	if cfg.StartTimeout <= 0 {
		return errors.New("process.start_timeout must be positive")
	}
	if cfg.Warmup < 0 || cfg.Warmup > cfg.StartTimeout {
		return fmt.Errorf("process.warmup %s must be between 0 and start_timeout %s", cfg.Warmup, cfg.StartTimeout)
	}
	if cfg.ReleaseDelay < 0 {
		return errors.New("process.release_delay must not be negative")
	}
	if cfg.ReadyAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.ReadyAddr); err != nil {
			return fmt.Errorf("process.ready_addr %q: %w", cfg.ReadyAddr, err)
		}
	}
	for _, kv := range cfg.Env {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("process.env entry %q is not KEY=VALUE", kv)
		}
	}
	return nil
}

func verifyCoordinator(cfg *CoordinatorSection) error {
	switch cfg.RestartPolicy {
	case "", "always", "previous":
		return nil
	}
	return fmt.Errorf("coordinator.restart_policy %q must be always or previous", cfg.RestartPolicy)
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format %q must be json or text", cfg.Format)
	}
	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not a known level", cfg.Level)
	}
	return nil
}
