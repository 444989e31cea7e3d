package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/worldsnap-go/internal/core/service"
	"github.com/yndnr/worldsnap-go/internal/infra/buildinfo"
	"github.com/yndnr/worldsnap-go/internal/infra/confloader"
	"github.com/yndnr/worldsnap-go/internal/infra/shutdown"
	"github.com/yndnr/worldsnap-go/internal/infra/tlsroots"
	"github.com/yndnr/worldsnap-go/internal/process"
	"github.com/yndnr/worldsnap-go/internal/server/config"
	"github.com/yndnr/worldsnap-go/internal/server/httpserver"
	"github.com/yndnr/worldsnap-go/internal/storage/snapshot"
	"github.com/yndnr/worldsnap-go/internal/telemetry/logger"
	"github.com/yndnr/worldsnap-go/internal/telemetry/metric"
)

func main() {
	app := &cli.App{
		Name:    "worldsnap-server",
		Usage:   "Supervise a game server and keep snapshots of its world",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				EnvVars: []string{"WORLDSNAP_CONFIG"},
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.String("config"))
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	logger.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting worldsnap-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	metrics := metric.NewRegistry()

	store, err := snapshot.NewStore(snapshot.Config{
		WorldDir:     cfg.Storage.WorldDir,
		SnapshotsDir: cfg.Storage.SnapshotsDir,
		StagingDir:   cfg.Storage.StagingDir,
		Logger:       log,
	})
	if err != nil {
		return fmt.Errorf("init snapshot store: %w", err)
	}
	if n, err := store.Sweep(); err != nil {
		log.Warn("sweep leftover staging directories", "error", err)
	} else if n > 0 {
		log.Info("removed leftover staging directories", "count", n)
	}
	if err := metrics.Register(metric.NewCollector(store)); err != nil {
		return fmt.Errorf("register snapshot collector: %w", err)
	}

	ctrl, err := initProcess(cfg, log)
	if err != nil {
		return fmt.Errorf("init process controller: %w", err)
	}

	policy, err := service.ParseRestartPolicy(cfg.Coordinator.RestartPolicy)
	if err != nil {
		return err
	}
	coord := service.NewCoordinator(ctrl, store, service.CoordinatorConfig{
		RestartPolicy: policy,
		StopTimeout:   cfg.Process.StopTimeout,
		Metrics:       metrics,
		Logger:        log,
	})

	ctx := context.Background()
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Coordinator:        coord,
		Metrics:            metrics,
		Logger:             log,
		LegacyRoutes:       cfg.Server.HTTP.LegacyRoutes,
		RequestTimeout:     cfg.Server.HTTP.RequestTimeout,
		CORSAllowedOrigins: cfg.Server.HTTP.CORSOrigins,
		RateLimit:          rateLimit(cfg),
	})
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router)

	// Stop timeout plus the kill grace bounds the game server stop hook.
	shutdownHandler := shutdown.NewHandler(cfg.Process.StopTimeout + cfg.Process.KillGrace + 30*time.Second)

	// Hooks run in reverse order of registration.
	if cfg.Process.StopOnExit {
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("stopping game server")
			_, err := coord.StopServer(ctx)
			return err
		})
	}

	if configFile != "" {
		watcher, err := watchConfig(configFile, log)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	serve := httpServer.ListenAndServe
	if cfg.Server.HTTP.TLSCertFile != "" && cfg.Server.HTTP.TLSKeyFile != "" {
		certs, err := tlsroots.NewReloader(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
			tlsroots.WithLogger(log))
		if err != nil {
			return fmt.Errorf("load TLS certificate: %w", err)
		}
		shutdownHandler.OnShutdown(func(context.Context) error {
			return certs.Stop()
		})
		serve = func() error {
			return httpServer.ListenAndServeTLSConfig(certs.TLSConfig())
		}
	}

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)
		if err := serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			shutdownHandler.Trigger()
		}
	}()

	if cfg.Process.Autostart {
		if state, err := coord.StartServer(ctx); err != nil {
			log.Error("autostart failed", "error", err, "server_status", state)
		} else {
			log.Info("game server started", "server_status", state)
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from defaults, file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func initProcess(cfg *config.ServerConfig, log *slog.Logger) (*process.Controller, error) {
	finder, err := process.NewProcFinder(cfg.Process.ProcRoot)
	if err != nil {
		return nil, err
	}

	p := cfg.Process
	return process.NewController(process.Config{
		Command:      p.Command,
		Args:         p.Args,
		Dir:          p.Dir,
		Env:          p.Env,
		MatchPattern: p.MatchPattern,
		StopInput:    p.StopInput,
		StopTimeout:  p.StopTimeout,
		KillGrace:    p.KillGrace,
		StartTimeout: p.StartTimeout,
		Warmup:       p.Warmup,
		ReadyAddr:    p.ReadyAddr,
		ReleaseDelay: p.ReleaseDelay,
		PollInterval: p.PollInterval,
		LogFile:      p.LogFile,
		Logger:       log,
		Finder:       finder,
	})
}

func rateLimit(cfg *config.ServerConfig) *httpserver.RateLimitConfig {
	rl := cfg.Server.HTTP.RateLimit
	if !rl.Enabled {
		return nil
	}
	return &httpserver.RateLimitConfig{RPS: rl.RPS, Burst: rl.Burst}
}

// watchConfig reloads the config file on change. Only the log level takes
// effect without a restart.
func watchConfig(path string, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		old := logger.GetLevel()
		logger.SetLevel(cfg.Log.Level)
		log.Info("config reloaded", "log_level_old", old, "log_level", logger.GetLevel())
	})
	w.StartAsync()
	return w, nil
}
