package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yndnr/worldsnap-go/internal/core/domain"
	"github.com/yndnr/worldsnap-go/internal/core/service"
	"github.com/yndnr/worldsnap-go/internal/telemetry/logger"
	"github.com/yndnr/worldsnap-go/internal/telemetry/metric"
)

type stubCoordinator struct{}

func (stubCoordinator) ServerStatus(context.Context) domain.ServerState {
	return domain.ServerStopped
}

func (stubCoordinator) ListSnapshots(context.Context) ([]domain.Snapshot, domain.ServerState, error) {
	return []domain.Snapshot{{Name: "snap1"}}, domain.ServerStopped, nil
}

func (stubCoordinator) CreateSnapshot(_ context.Context, name string) (service.Result, error) {
	return service.Result{Snapshot: domain.Snapshot{Name: name}, ServerStatus: domain.ServerStopped}, nil
}

func (stubCoordinator) RestoreSnapshot(_ context.Context, name string) (service.Result, error) {
	return service.Result{Snapshot: domain.Snapshot{Name: name}, ServerStatus: domain.ServerStopped}, nil
}

func (stubCoordinator) StartServer(context.Context) (domain.ServerState, error) {
	return domain.ServerRunning, nil
}

func (stubCoordinator) StopServer(context.Context) (domain.ServerState, error) {
	return domain.ServerStopped, nil
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, _ := io.ReadAll(rec.Body)
	return rec, string(body)
}

func TestNewRouter(t *testing.T) {
	metrics := metric.NewRegistry()
	h := NewRouter(&RouterConfig{
		Coordinator:  stubCoordinator{},
		Metrics:      metrics,
		Logger:       logger.Discard(),
		LegacyRoutes: true,
	})

	rec, body := get(t, h, "/snapshots")
	if rec.Code != http.StatusOK || !strings.Contains(body, `"snap1"`) {
		t.Fatalf("/snapshots = %d %s", rec.Code, body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID missing")
	}
	if !strings.Contains(body, rec.Header().Get("X-Request-ID")) {
		t.Error("envelope request_id should match the header")
	}

	if rec, _ := get(t, h, "/"); rec.Code != http.StatusOK {
		t.Errorf("legacy / = %d", rec.Code)
	}

	rec, body = get(t, h, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics = %d", rec.Code)
	}
	if !strings.Contains(body, `worldsnap_http_requests_total{code="200",method="GET",route="GET /snapshots"} 1`) {
		t.Errorf("request metric missing from /metrics:\n%s", body)
	}
}

func TestNewRouter_NoMetrics(t *testing.T) {
	h := NewRouter(&RouterConfig{Coordinator: stubCoordinator{}, Logger: logger.Discard()})

	if rec, _ := get(t, h, "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("/metrics without registry = %d, want 404", rec.Code)
	}
	if rec, _ := get(t, h, "/health"); rec.Code != http.StatusOK {
		t.Errorf("/health = %d", rec.Code)
	}
}

func TestNewRouter_RateLimitExemptions(t *testing.T) {
	h := NewRouter(&RouterConfig{
		Coordinator: stubCoordinator{},
		Logger:      logger.Discard(),
		RateLimit:   &RateLimitConfig{RPS: 0.001, Burst: 1},
	})

	if rec, _ := get(t, h, "/snapshots"); rec.Code != http.StatusOK {
		t.Fatalf("first = %d", rec.Code)
	}
	if rec, _ := get(t, h, "/snapshots"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second = %d, want 429", rec.Code)
	}
	for i := 0; i < 3; i++ {
		if rec, _ := get(t, h, "/health"); rec.Code != http.StatusOK {
			t.Errorf("/health limited: %d", rec.Code)
		}
	}
}
