package command

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/urfave/cli/v2"
)

// mockServer is a worldsnap-server stand-in keyed by "METHOD /path".
type mockServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []*recordedRequest
}

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{handlers: make(map[string]http.HandlerFunc)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		_, _ = body.ReadFrom(r.Body)

		m.mu.Lock()
		m.requests = append(m.requests, &recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body.String()})
		h, ok := m.handlers[r.Method+" "+r.URL.Path]
		m.mu.Unlock()

		if !ok {
			errorResponse(w, http.StatusNotFound, "WS-SYS-4040", "not found")
			return
		}
		h(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockServer) handle(pattern string, h http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[pattern] = h
}

func (m *mockServer) lastRequest() *recordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

func (m *mockServer) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func dataResponse(w http.ResponseWriter, data any) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"code":       "OK",
		"message":    "success",
		"request_id": "01TEST",
		"timestamp":  1714521600000,
		"data":       data,
	})
}

func jsonResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errorResponse(w http.ResponseWriter, status int, code, message string) {
	jsonResponse(w, status, map[string]any{
		"code":       code,
		"message":    message,
		"request_id": "01TEST",
		"timestamp":  1714521600000,
	})
}

func errorWithStatus(w http.ResponseWriter, status int, code, message, serverStatus string) {
	jsonResponse(w, status, map[string]any{
		"code":       code,
		"message":    message,
		"request_id": "01TEST",
		"timestamp":  1714521600000,
		"details":    map[string]string{"server_status": serverStatus},
	})
}

type runResult struct {
	Stdout string
	Stderr string
	Err    error
}

// run executes the CLI against server with an isolated config file.
// stdin feeds confirmation prompts.
func run(t *testing.T, server *mockServer, stdin string, args ...string) runResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := []string{"worldsnap-cli", "--config", filepath.Join(t.TempDir(), "cli.yaml")}
	if server != nil {
		full = append(full, "--server", server.URL)
	}
	full = append(full, args...)

	err := app.Run(full)
	return runResult{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

// captureCommand records the resolved settings of a run.
func captureCommand(dst **Settings) *cli.Command {
	return &cli.Command{
		Name: "capture",
		Action: func(c *cli.Context) error {
			*dst = settings(c)
			return nil
		},
	}
}
