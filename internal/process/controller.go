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
	"strings"
	"sync"
	"time"

	"github.com/yndnr/worldsnap-go/internal/core/domain"
)

// Defaults applied by NewController to zero-valued Config fields.
const (
	DefaultStopInput    = "stop\n"
	DefaultStopTimeout  = 30 * time.Second
	DefaultKillGrace    = 5 * time.Second
	DefaultStartTimeout = 60 * time.Second
	DefaultWarmup       = 2 * time.Second
	DefaultReleaseDelay = time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

// Config configures a Controller.
type Config struct {
	// Command is the executable to run; Args are passed to it unchanged.
	Command string
	Args    []string
	Dir     string
	// Env entries are appended to the worldsnap environment.
	Env []string

	// MatchPattern identifies the game server in a process command line.
	// Defaults to Command and Args joined by spaces.
	MatchPattern string

	// StopInput is written to the process stdin to request shutdown.
	StopInput string

	// StopTimeout bounds the graceful stop when the caller passes zero.
	StopTimeout time.Duration

	// KillGrace bounds the wait after SIGKILL.
	KillGrace time.Duration

	// StartTimeout bounds the whole readiness wait.
	StartTimeout time.Duration

	// Warmup is how long the process must stay alive before it counts as
	// started.
	Warmup time.Duration

	// ReadyAddr, when set, must accept a TCP connection before Start
	// returns.
	ReadyAddr string

	// ReleaseDelay is waited after a stop so the OS releases file handles.
	ReleaseDelay time.Duration

	PollInterval time.Duration

	// LogFile receives the process stdout and stderr. Empty discards them.
	LogFile string

	Logger *slog.Logger
	Finder Finder
}

// handle is a process spawned by this Controller.
type handle struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	done  chan struct{}
	err   error // set before done is closed
}

func (h *handle) alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *handle) wait(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-h.done:
		return true
	case <-t.C:
		return false
	}
}

// Controller starts, stops and reports the managed process. At most one
// process is tracked at a time.
type Controller struct {
	cfg    Config
	logger *slog.Logger
	finder Finder

	// mu serializes Start and Stop.
	mu sync.Mutex

	hmu  sync.Mutex
	proc *handle
}

// NewController returns a Controller for cfg.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("process: command is required")
	}
	if cfg.Finder == nil {
		return nil, fmt.Errorf("process: finder is required")
	}
	if cfg.MatchPattern == "" {
		cfg.MatchPattern = strings.Join(append([]string{cfg.Command}, cfg.Args...), " ")
	}
	if cfg.StopInput == "" {
		cfg.StopInput = DefaultStopInput
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = DefaultKillGrace
	}
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = DefaultStartTimeout
	}
	if cfg.Warmup < 0 {
		cfg.Warmup = 0
	}
	if cfg.Warmup > cfg.StartTimeout {
		return nil, fmt.Errorf("process: warmup %s exceeds start timeout %s", cfg.Warmup, cfg.StartTimeout)
	}
	if cfg.ReleaseDelay < 0 {
		cfg.ReleaseDelay = 0
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Controller{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "process"),
		finder: cfg.Finder,
	}, nil
}

// StopTimeout returns the configured graceful stop timeout.
func (c *Controller) StopTimeout() time.Duration {
	return c.cfg.StopTimeout
}

func (c *Controller) current() *handle {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	return c.proc
}

func (c *Controller) setCurrent(h *handle) {
	c.hmu.Lock()
	c.proc = h
	c.hmu.Unlock()
}

// Status reports whether the game server is running. A live handle answers
// directly; otherwise the process table is scanned so servers started
// outside this Controller are seen too.
func (c *Controller) Status(ctx context.Context) domain.ServerState {
	if h := c.current(); h != nil && h.alive() {
		return domain.ServerRunning
	}
	pids, err := c.reconcileWithOS()
	if err != nil {
		c.logger.WarnContext(ctx, "process scan failed", "error", err)
		return domain.ServerStopped
	}
	if len(pids) > 0 {
		return domain.ServerRunning
	}
	return domain.ServerStopped
}

// reconcileWithOS returns the PIDs of every process matching the
// configured pattern, including one spawned by this Controller.
func (c *Controller) reconcileWithOS() ([]int, error) {
	return c.finder.Find(c.cfg.MatchPattern)
}

// Start spawns the game server and waits until it is ready. It returns
// domain.ErrAlreadyRunning when a matching process is already running and
// domain.ErrStartFailed when the process exits or is not ready in time.
//
// Once spawned, the readiness wait runs to completion regardless of ctx.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Status(ctx).IsRunning() {
		return domain.ErrAlreadyRunning
	}

	out, err := c.openLog()
	if err != nil {
		return domain.ErrStartFailed.Wrap(err)
	}

	cmd := exec.Command(c.cfg.Command, c.cfg.Args...)
	cmd.Dir = c.cfg.Dir
	if len(c.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), c.cfg.Env...)
	}
	if out != nil {
		cmd.Stdout = out
		cmd.Stderr = out
	}
	setProcAttr(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		closeLog(out)
		return domain.ErrStartFailed.Wrap(err)
	}
	if err := cmd.Start(); err != nil {
		closeLog(out)
		return domain.ErrStartFailed.Wrap(err)
	}

	h := &handle{cmd: cmd, stdin: stdin, done: make(chan struct{})}
	go func() {
		h.err = cmd.Wait()
		closeLog(out)
		close(h.done)
	}()
	c.setCurrent(h)

	c.logger.InfoContext(ctx, "server process spawned", "pid", cmd.Process.Pid, "command", c.cfg.Command)

	if err := c.waitReady(h); err != nil {
		c.logger.ErrorContext(ctx, "server process not ready", "pid", cmd.Process.Pid, "error", err)
		_ = killGroup(cmd.Process.Pid)
		h.wait(c.cfg.KillGrace)
		_ = stdin.Close()
		c.setCurrent(nil)
		return domain.ErrStartFailed.Wrap(err)
	}

	c.logger.InfoContext(ctx, "server process ready", "pid", cmd.Process.Pid)
	return nil
}

func (c *Controller) openLog() (*os.File, error) {
	if c.cfg.LogFile == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(c.cfg.LogFile), 0o750); err != nil {
		return nil, err
	}
	return os.OpenFile(c.cfg.LogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
}

func closeLog(f *os.File) {
	if f != nil {
		_ = f.Close()
	}
}

// waitReady polls until the warm-up has elapsed and ReadyAddr accepts
// connections, or StartTimeout passes.
func (c *Controller) waitReady(h *handle) error {
	start := time.Now()
	deadline := start.Add(c.cfg.StartTimeout)
	warm := start.Add(c.cfg.Warmup)

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if !h.alive() {
			if h.err != nil {
				return fmt.Errorf("process exited during startup: %w", h.err)
			}
			return errors.New("process exited during startup")
		}
		now := time.Now()
		if !now.Before(warm) && c.probe() {
			return nil
		}
		if now.After(deadline) {
			if c.cfg.ReadyAddr != "" {
				return fmt.Errorf("%s not accepting connections after %s", c.cfg.ReadyAddr, c.cfg.StartTimeout)
			}
			return fmt.Errorf("not ready after %s", c.cfg.StartTimeout)
		}
		select {
		case <-h.done:
		case <-ticker.C:
		}
	}
}

func (c *Controller) probe() bool {
	if c.cfg.ReadyAddr == "" {
		return true
	}
	conn, err := net.DialTimeout("tcp", c.cfg.ReadyAddr, c.cfg.PollInterval)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Stop shuts the game server down. Stopping a server that is not running
// succeeds. A zero timeout uses the configured StopTimeout.
//
// The tracked process is asked to stop through its stdin and killed when
// it does not exit within timeout. Any other process matching the pattern
// is killed. Stop returns domain.ErrStopFailed when a matching process
// survives.
func (c *Controller) Stop(ctx context.Context, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timeout <= 0 {
		timeout = c.cfg.StopTimeout
	}

	stopped := false
	if h := c.current(); h != nil && h.alive() {
		stopped = true
		pid := h.cmd.Process.Pid
		c.logger.InfoContext(ctx, "stopping server process", "pid", pid)

		if _, err := io.WriteString(h.stdin, c.cfg.StopInput); err != nil {
			c.logger.WarnContext(ctx, "write stop input failed", "pid", pid, "error", err)
		}
		if !h.wait(timeout) {
			c.logger.WarnContext(ctx, "graceful stop timed out, killing", "pid", pid, "timeout", timeout)
			if err := killGroup(pid); err != nil {
				c.logger.WarnContext(ctx, "kill failed", "pid", pid, "error", err)
			}
			if !h.wait(c.cfg.KillGrace) {
				return domain.ErrStopFailed.WithDetails(fmt.Sprintf("pid %d still alive after kill", pid))
			}
		}
		_ = h.stdin.Close()
	}

	pids, err := c.reconcileWithOS()
	if err != nil {
		return domain.ErrStopFailed.Wrap(err)
	}
	for _, pid := range pids {
		stopped = true
		c.logger.WarnContext(ctx, "killing untracked server process", "pid", pid)
		if err := killPID(pid); err != nil {
			c.logger.WarnContext(ctx, "kill failed", "pid", pid, "error", err)
		}
	}

	c.setCurrent(nil)

	if !stopped {
		return nil
	}
	if err := c.waitGone(); err != nil {
		return domain.ErrStopFailed.Wrap(err)
	}
	if c.cfg.ReleaseDelay > 0 {
		time.Sleep(c.cfg.ReleaseDelay)
	}
	c.logger.InfoContext(ctx, "server process stopped")
	return nil
}

// waitGone polls until no matching process remains, bounded by KillGrace.
func (c *Controller) waitGone() error {
	deadline := time.Now().Add(c.cfg.KillGrace)
	for {
		pids, err := c.reconcileWithOS()
		if err != nil {
			return err
		}
		if len(pids) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("processes %v still running after %s", pids, c.cfg.KillGrace)
		}
		time.Sleep(c.cfg.PollInterval)
	}
}
