package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/worldsnap-go/internal/core/domain"
	"github.com/yndnr/worldsnap-go/internal/core/service"
	"github.com/yndnr/worldsnap-go/internal/telemetry/logger"
)

// Coordinator is the subset of service.Coordinator the handlers use.
type Coordinator interface {
	ServerStatus(ctx context.Context) domain.ServerState
	ListSnapshots(ctx context.Context) ([]domain.Snapshot, domain.ServerState, error)
	CreateSnapshot(ctx context.Context, name string) (service.Result, error)
	RestoreSnapshot(ctx context.Context, name string) (service.Result, error)
	StartServer(ctx context.Context) (domain.ServerState, error)
	StopServer(ctx context.Context) (domain.ServerState, error)
}

// Options configures a Handler.
type Options struct {
	// LegacyRoutes registers the GET-only compatibility routes.
	LegacyRoutes bool
	// RequestTimeout bounds the wait for a busy coordinator. Zero waits for
	// as long as the client stays connected.
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	coord   Coordinator
	opts    Options
	logger  *slog.Logger
	mux     *http.ServeMux
	started time.Time
}

// New creates a new Handler backed by coord.
func New(coord Coordinator, opts Options) *Handler {
	l := opts.Logger
	if l == nil {
		l = logger.Default()
	}
	h := &Handler{
		coord:   coord,
		opts:    opts,
		logger:  l.With("component", "http"),
		mux:     http.NewServeMux(),
		started: time.Now(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)

	h.mux.HandleFunc("GET /snapshots", h.handleListSnapshots)
	h.mux.HandleFunc("POST /snapshots", h.handleCreateSnapshot)
	h.mux.HandleFunc("POST /snapshots/{name}/restore", h.handleRestoreSnapshot)

	h.mux.HandleFunc("GET /server/status", h.handleServerStatus)
	h.mux.HandleFunc("POST /server/start", h.handleStartServer)
	h.mux.HandleFunc("POST /server/stop", h.handleStopServer)

	if h.opts.LegacyRoutes {
		h.mux.HandleFunc("GET /{$}", h.handleListSnapshots)
		h.mux.HandleFunc("GET /create-backup", h.handleLegacyCreate)
		h.mux.HandleFunc("GET /create-backup/{name}", h.handleLegacyCreate)
		h.mux.HandleFunc("GET /restore/{name}", h.handleRestoreSnapshot)
		h.mux.HandleFunc("GET /start-server", h.handleStartServer)
		h.mux.HandleFunc("GET /stop-server", h.handleStopServer)
		h.mux.HandleFunc("GET /status", h.handleServerStatus)
	}
}

// opContext bounds how long a request waits for the coordinator lock.
func (h *Handler) opContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.opts.RequestTimeout > 0 {
		return context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	}
	return context.WithCancel(r.Context())
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := logger.RequestIDFromContext(r.Context())
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := logger.RequestIDFromContext(r.Context())
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// handleServiceError converts service errors to HTTP responses. state is
// reported in details.server_status.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, state domain.ServerState) {
	h.writeServiceError(w, r, err, &ErrorDetails{ServerStatus: state.String()})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, details *ErrorDetails) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		status := errorCodeToHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			logger.L(r.Context()).Error("request failed", "code", code, "error", err)
		}
		h.writeError(w, r, status, code, err.Error(), details)
		return
	}

	logger.L(r.Context()).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, err.Error(), details)
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"), strings.HasSuffix(code, "-4041"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
