package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/worldsnap-go/internal/core/domain"
)

// stopOnInput exits when it reads "stop" or stdin is closed.
const stopOnInput = `while read l; do [ "$l" = stop ] && exit 0; done`

// ignoreInput never exits on its own.
const ignoreInput = `while :; do sleep 1; done`

func requireLinux(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("process tests need /proc and /bin/sh")
	}
}

func uniqueMarker(t *testing.T) string {
	name := strings.NewReplacer("/", "-", " ", "-").Replace(t.Name())
	return fmt.Sprintf("worldsnap-test-%s-%d-%d", name, os.Getpid(), time.Now().UnixNano())
}

func newShellController(t *testing.T, script string, mutate func(*Config)) (*Controller, string) {
	t.Helper()
	requireLinux(t)

	finder, err := NewProcFinder("")
	if err != nil {
		t.Fatalf("NewProcFinder: %v", err)
	}
	marker := uniqueMarker(t)
	cfg := Config{
		Command:      "/bin/sh",
		Args:         []string{"-c", script, marker},
		MatchPattern: marker,
		StopTimeout:  2 * time.Second,
		KillGrace:    2 * time.Second,
		StartTimeout: 2 * time.Second,
		Warmup:       100 * time.Millisecond,
		PollInterval: 20 * time.Millisecond,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Finder:       finder,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := NewController(cfg)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Stop(context.Background(), 100*time.Millisecond)
	})
	return c, marker
}

func TestNewController_Validation(t *testing.T) {
	if _, err := NewController(Config{Finder: &fakeFinder{}}); err == nil {
		t.Error("NewController() should require a command")
	}
	if _, err := NewController(Config{Command: "java"}); err == nil {
		t.Error("NewController() should require a finder")
	}
	if _, err := NewController(Config{
		Command:      "java",
		Finder:       &fakeFinder{},
		Warmup:       time.Minute,
		StartTimeout: time.Second,
	}); err == nil {
		t.Error("NewController() should reject warmup longer than start timeout")
	}
}

func TestNewController_Defaults(t *testing.T) {
	c, err := NewController(Config{
		Command: "java",
		Args:    []string{"-jar", "server.jar", "nogui"},
		Finder:  &fakeFinder{},
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	if c.cfg.MatchPattern != "java -jar server.jar nogui" {
		t.Errorf("MatchPattern = %q", c.cfg.MatchPattern)
	}
	if c.cfg.StopInput != DefaultStopInput {
		t.Errorf("StopInput = %q, want %q", c.cfg.StopInput, DefaultStopInput)
	}
	if c.StopTimeout() != DefaultStopTimeout {
		t.Errorf("StopTimeout() = %v, want %v", c.StopTimeout(), DefaultStopTimeout)
	}
	if c.cfg.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", c.cfg.PollInterval, DefaultPollInterval)
	}
}

func TestController_StartStop(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "server.log")
	c, _ := newShellController(t, `echo booting; `+stopOnInput, func(cfg *Config) {
		cfg.LogFile = logFile
	})
	ctx := context.Background()

	if got := c.Status(ctx); got != domain.ServerStopped {
		t.Fatalf("initial Status() = %v, want stopped", got)
	}

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := c.Status(ctx); got != domain.ServerRunning {
		t.Fatalf("Status() after Start = %v, want running", got)
	}

	if err := c.Start(ctx); !errors.Is(err, domain.ErrAlreadyRunning) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyRunning", err)
	}

	begin := time.Now()
	if err := c.Stop(ctx, 0); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// Graceful stop is well under the kill path.
	if elapsed := time.Since(begin); elapsed > time.Second {
		t.Errorf("graceful Stop took %v", elapsed)
	}
	if got := c.Status(ctx); got != domain.ServerStopped {
		t.Fatalf("Status() after Stop = %v, want stopped", got)
	}

	// Idempotent.
	if err := c.Stop(ctx, 0); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "booting") {
		t.Errorf("log file = %q, want it to contain process output", data)
	}
}

func TestController_StopEscalatesToKill(t *testing.T) {
	c, _ := newShellController(t, ignoreInput, nil)
	ctx := context.Background()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Stop(ctx, 200*time.Millisecond); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := c.Status(ctx); got != domain.ServerStopped {
		t.Errorf("Status() = %v, want stopped", got)
	}
}

func TestController_StopKillsUntrackedProcess(t *testing.T) {
	c, marker := newShellController(t, stopOnInput, nil)
	ctx := context.Background()

	// Simulates a server left behind by a previous worldsnap run.
	orphan := exec.Command("/bin/sh", "-c", ignoreInput, marker)
	if err := orphan.Start(); err != nil {
		t.Fatalf("start orphan: %v", err)
	}
	waited := make(chan error, 1)
	go func() { waited <- orphan.Wait() }()
	t.Cleanup(func() { _ = orphan.Process.Kill() })

	deadline := time.Now().Add(2 * time.Second)
	for c.Status(ctx) != domain.ServerRunning {
		if time.Now().After(deadline) {
			t.Fatal("untracked process never reported as running")
		}
		time.Sleep(20 * time.Millisecond)
	}

	if err := c.Start(ctx); !errors.Is(err, domain.ErrAlreadyRunning) {
		t.Fatalf("Start() error = %v, want ErrAlreadyRunning", err)
	}

	if err := c.Stop(ctx, 0); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("untracked process was not killed")
	}
	if got := c.Status(ctx); got != domain.ServerStopped {
		t.Errorf("Status() = %v, want stopped", got)
	}
}

func TestController_StartFailsWhenProcessExits(t *testing.T) {
	c, _ := newShellController(t, `exit 3`, func(cfg *Config) {
		cfg.Warmup = 300 * time.Millisecond
	})
	ctx := context.Background()

	err := c.Start(ctx)
	if !errors.Is(err, domain.ErrStartFailed) {
		t.Fatalf("Start() error = %v, want ErrStartFailed", err)
	}
	if got := c.Status(ctx); got != domain.ServerStopped {
		t.Errorf("Status() = %v, want stopped", got)
	}
}

func TestController_StartFailsWhenNotReady(t *testing.T) {
	// Reserve a port and close it so nothing listens there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	c, _ := newShellController(t, stopOnInput, func(cfg *Config) {
		cfg.ReadyAddr = addr
		cfg.StartTimeout = 300 * time.Millisecond
		cfg.Warmup = 0
	})
	ctx := context.Background()

	err = c.Start(ctx)
	if !errors.Is(err, domain.ErrStartFailed) {
		t.Fatalf("Start() error = %v, want ErrStartFailed", err)
	}
	if !strings.Contains(err.Error(), addr) {
		t.Errorf("error %q should name the ready address", err)
	}
	if got := c.Status(ctx); got != domain.ServerStopped {
		t.Errorf("Status() = %v, want stopped after failed start", got)
	}
}

func TestController_StartWaitsForReadyAddr(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	c, _ := newShellController(t, stopOnInput, func(cfg *Config) {
		cfg.ReadyAddr = ln.Addr().String()
		cfg.Warmup = 0
	})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func TestController_ConcurrentStartSpawnsOnce(t *testing.T) {
	c, marker := newShellController(t, stopOnInput, nil)
	ctx := context.Background()

	const n = 4
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = c.Start(ctx)
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrAlreadyRunning):
		default:
			t.Errorf("Start() unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("successful starts = %d, want 1", ok)
	}

	pids, err := c.finder.Find(marker)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(pids) != 1 {
		t.Errorf("running processes = %v, want exactly one", pids)
	}
}

type fakeFinder struct {
	mu   sync.Mutex
	pids []int
	err  error
}

func (f *fakeFinder) Find(string) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pids, f.err
}

func TestController_StatusUsesFinder(t *testing.T) {
	f := &fakeFinder{}
	c, err := NewController(Config{
		Command: "java",
		Finder:  f,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	ctx := context.Background()

	if got := c.Status(ctx); got != domain.ServerStopped {
		t.Errorf("Status() = %v, want stopped", got)
	}

	f.pids = []int{4242}
	if got := c.Status(ctx); got != domain.ServerRunning {
		t.Errorf("Status() = %v, want running", got)
	}

	f.pids, f.err = nil, errors.New("proc unavailable")
	if got := c.Status(ctx); got != domain.ServerStopped {
		t.Errorf("Status() with scan error = %v, want stopped", got)
	}
}

func TestController_StopReportsScanFailure(t *testing.T) {
	f := &fakeFinder{err: errors.New("proc unavailable")}
	c, err := NewController(Config{
		Command: "java",
		Finder:  f,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	if err := c.Stop(context.Background(), 0); !errors.Is(err, domain.ErrStopFailed) {
		t.Errorf("Stop() error = %v, want ErrStopFailed", err)
	}
}
