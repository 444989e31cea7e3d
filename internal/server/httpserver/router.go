package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/worldsnap-go/internal/server/httpserver/handler"
	"github.com/yndnr/worldsnap-go/internal/telemetry/logger"
	"github.com/yndnr/worldsnap-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Coordinator handler.Coordinator

	// Metrics serves /metrics and records request metrics. Nil disables both.
	Metrics *metric.Registry

	Logger *slog.Logger

	// LegacyRoutes exposes the GET-only compatibility routes.
	LegacyRoutes bool

	// RequestTimeout bounds the wait for a busy coordinator.
	RequestTimeout time.Duration

	// CORSAllowedOrigins lists allowed browser origins (empty = none).
	CORSAllowedOrigins []string

	// RateLimit enables per-client rate limiting when non-nil.
	RateLimit *RateLimitConfig
}

// NewRouter creates the HTTP router with all routes and middleware.
//
// Order: RequestID -> Recover -> Audit -> CORS -> RateLimit -> routes.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	h := handler.New(cfg.Coordinator, handler.Options{
		LegacyRoutes:   cfg.LegacyRoutes,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
	})

	mux := http.NewServeMux()
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}
	mux.Handle("/", h)

	middlewares := []Middleware{
		RequestID(log),
		Recover(log),
		Audit(log.With("component", "access"), cfg.Metrics),
		CORS(cfg.CORSAllowedOrigins),
	}
	if cfg.RateLimit != nil {
		rl := *cfg.RateLimit
		rl.Exempt = append(rl.Exempt, "/health", "/metrics")
		middlewares = append(middlewares, RateLimit(rl))
	}

	return Chain(mux, middlewares...)
}
