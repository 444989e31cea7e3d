package command

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestSnapshotList_Table(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("GET /snapshots", func(w http.ResponseWriter, r *http.Request) {
		dataResponse(w, map[string]any{
			"snapshots": []map[string]any{
				{"name": "2024-05-02_10-00-00", "created_at": "2024-05-02T10:00:00Z"},
				{"name": "before-update"},
			},
			"count":         2,
			"server_status": "running",
		})
	})

	res := run(t, srv, "", "snapshot", "list")
	if res.Err != nil {
		t.Fatalf("Run() error = %v", res.Err)
	}
	for _, want := range []string{"NAME", "CREATED", "2024-05-02_10-00-00", "before-update", "2 snapshot(s), server running"} {
		if !strings.Contains(res.Stdout, want) {
			t.Errorf("output missing %q:\n%s", want, res.Stdout)
		}
	}
}

func TestSnapshotList_JSON(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("GET /snapshots", func(w http.ResponseWriter, r *http.Request) {
		dataResponse(w, map[string]any{
			"snapshots":     []map[string]any{{"name": "a"}},
			"count":         1,
			"server_status": "stopped",
		})
	})

	res := run(t, srv, "", "-o", "json", "snapshot", "ls")
	if res.Err != nil {
		t.Fatalf("Run() error = %v", res.Err)
	}
	var got listResult
	if err := json.Unmarshal([]byte(res.Stdout), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, res.Stdout)
	}
	if got.Count != 1 || got.Snapshots[0].Name != "a" || got.ServerStatus != "stopped" {
		t.Errorf("got %+v", got)
	}
}

func TestSnapshotCreate(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantBody string
	}{
		{name: "generated name", args: nil, wantBody: ""},
		{name: "explicit name", args: []string{"before-update"}, wantBody: `{"name":"before-update"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newMockServer(t)
			srv.handle("POST /snapshots", func(w http.ResponseWriter, r *http.Request) {
				dataResponse(w, map[string]any{
					"snapshot":      map[string]any{"name": "before-update"},
					"server_status": "running",
				})
			})

			res := run(t, srv, "", append([]string{"-q", "snapshot", "create"}, tt.args...)...)
			if res.Err != nil {
				t.Fatalf("Run() error = %v", res.Err)
			}
			if got := strings.TrimSpace(srv.lastRequest().Body); got != tt.wantBody {
				t.Errorf("request body = %q, want %q", got, tt.wantBody)
			}
			if !strings.Contains(res.Stdout, "Created snapshot before-update") || !strings.Contains(res.Stdout, "Server is running") {
				t.Errorf("output:\n%s", res.Stdout)
			}
		})
	}
}

func TestSnapshotCreate_TooManyArgs(t *testing.T) {
	srv := newMockServer(t)
	res := run(t, srv, "", "snapshot", "create", "a", "b")
	if res.Err == nil {
		t.Fatal("expected error")
	}
	if srv.requestCount() != 0 {
		t.Error("no request should be sent")
	}
}

func TestSnapshotCreate_RestartWarning(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("POST /snapshots", func(w http.ResponseWriter, r *http.Request) {
		dataResponse(w, map[string]any{
			"snapshot":        map[string]any{"name": "x"},
			"server_status":   "stopped",
			"restart_warning": "start server: exec: not found",
		})
	})

	res := run(t, srv, "", "-q", "snapshot", "create", "x")
	if res.Err != nil {
		t.Fatalf("Run() error = %v", res.Err)
	}
	if !strings.Contains(res.Stdout, "Warning: server restart failed: start server: exec: not found") {
		t.Errorf("output:\n%s", res.Stdout)
	}
}

func TestSnapshotCreate_Conflict(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("POST /snapshots", func(w http.ResponseWriter, r *http.Request) {
		errorWithStatus(w, http.StatusConflict, "WS-SNAP-4090", "snapshot already exists", "running")
	})

	res := run(t, srv, "", "-q", "snapshot", "create", "dup")
	if res.Err == nil || !strings.Contains(res.Err.Error(), "WS-SNAP-4090") {
		t.Errorf("Run() error = %v", res.Err)
	}
}

func TestSnapshotRestore_Confirmed(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("POST /snapshots/2024-05-01 night/restore", func(w http.ResponseWriter, r *http.Request) {
		dataResponse(w, map[string]any{
			"snapshot":        map[string]any{"name": "2024-05-01 night"},
			"safety_snapshot": "pre-restore_2024-05-02_10-00-00",
			"server_status":   "running",
		})
	})

	res := run(t, srv, "y\n", "-q", "snapshot", "restore", "2024-05-01 night")
	if res.Err != nil {
		t.Fatalf("Run() error = %v", res.Err)
	}
	for _, want := range []string{"[y/N]", "Restored snapshot 2024-05-01 night", "Previous world saved as pre-restore_2024-05-02_10-00-00"} {
		if !strings.Contains(res.Stdout, want) {
			t.Errorf("output missing %q:\n%s", want, res.Stdout)
		}
	}
}

func TestSnapshotRestore_Declined(t *testing.T) {
	srv := newMockServer(t)

	res := run(t, srv, "n\n", "snapshot", "restore", "a")
	if res.Err != nil {
		t.Fatalf("Run() error = %v", res.Err)
	}
	if !strings.Contains(res.Stdout, "Aborted.") {
		t.Errorf("output:\n%s", res.Stdout)
	}
	if srv.requestCount() != 0 {
		t.Error("declined restore must not reach the server")
	}
}

func TestSnapshotRestore_YesFlag(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("POST /snapshots/a/restore", func(w http.ResponseWriter, r *http.Request) {
		dataResponse(w, map[string]any{"snapshot": map[string]any{"name": "a"}, "server_status": "running"})
	})

	res := run(t, srv, "", "-q", "-o", "yaml", "snapshot", "restore", "--yes", "a")
	if res.Err != nil {
		t.Fatalf("Run() error = %v", res.Err)
	}
	if strings.Contains(res.Stdout, "[y/N]") {
		t.Error("--yes must skip the prompt")
	}
	if !strings.Contains(res.Stdout, "server_status: running") {
		t.Errorf("output:\n%s", res.Stdout)
	}
}

func TestSnapshotRestore_NotFound(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("POST /snapshots/missing/restore", func(w http.ResponseWriter, r *http.Request) {
		errorWithStatus(w, http.StatusNotFound, "WS-SNAP-4040", "snapshot not found", "running")
	})

	res := run(t, srv, "", "snapshot", "restore", "-y", "missing")
	if res.Err == nil || !strings.Contains(res.Err.Error(), "WS-SNAP-4040") {
		t.Errorf("Run() error = %v", res.Err)
	}
}

func TestSnapshotRestore_RequiresName(t *testing.T) {
	res := run(t, nil, "", "snapshot", "restore")
	if res.Err == nil {
		t.Fatal("expected error")
	}
}
