package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/yndnr/worldsnap-go/internal/core/domain"
	"github.com/yndnr/worldsnap-go/internal/telemetry/metric"
)

// ProcessController controls the managed game server.
type ProcessController interface {
	Status(ctx context.Context) domain.ServerState
	Start(ctx context.Context) error
	Stop(ctx context.Context, timeout time.Duration) error
}

// SnapshotStore stores copies of the working directory.
type SnapshotStore interface {
	List() ([]domain.Snapshot, error)
	Exists(name string) (bool, error)
	Create(name string) (domain.Snapshot, error)
	Restore(name string) error
}

// RestartPolicy decides whether the server is started after an operation.
type RestartPolicy string

const (
	// RestartAlways starts the server after every operation.
	RestartAlways RestartPolicy = "always"
	// RestartPrevious starts the server only if it was running when the
	// operation began.
	RestartPrevious RestartPolicy = "previous"
)

// ParseRestartPolicy parses s. An empty string yields RestartAlways.
func ParseRestartPolicy(s string) (RestartPolicy, error) {
	switch RestartPolicy(s) {
	case "", RestartAlways:
		return RestartAlways, nil
	case RestartPrevious:
		return RestartPrevious, nil
	}
	return "", fmt.Errorf("unknown restart policy %q", s)
}

// Phase is the Coordinator's position in the stop, operate, start cycle.
type Phase int32

const (
	// PhaseIdle means no operation is in progress.
	PhaseIdle Phase = iota
	// PhaseStopping means the server is being stopped before an operation.
	PhaseStopping
	// PhaseOperating means a snapshot is being created or restored.
	PhaseOperating
	// PhaseStarting means the server is being started after an operation.
	PhaseStarting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStopping:
		return "stopping"
	case PhaseOperating:
		return "operating"
	case PhaseStarting:
		return "starting"
	}
	return "unknown"
}

// Operation names used in logs and metrics.
const (
	OpCreate  = "create"
	OpRestore = "restore"
)

// safetyAttempts bounds the suffixes tried when a pre-restore name is
// already taken, e.g. two restores within the same second.
const safetyAttempts = 10

// Result is the outcome of a create or restore.
//
// The primary error is returned alongside. RestartWarning is set when the
// trailing restart failed, independently of whether the operation did.
type Result struct {
	// Snapshot is the snapshot created or restored.
	Snapshot domain.Snapshot
	// SafetySnapshot names the pre-restore copy, if one was taken.
	SafetySnapshot string
	// RestartWarning is the error from the trailing restart.
	RestartWarning error
	// ServerStatus is the state observed after the operation.
	ServerStatus domain.ServerState
}

// CoordinatorConfig configures a Coordinator.
type CoordinatorConfig struct {
	RestartPolicy RestartPolicy

	// StopTimeout bounds the graceful stop. Zero defers to the controller.
	StopTimeout time.Duration

	Metrics *metric.Registry
	Logger  *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Coordinator sequences server lifecycle around snapshot operations.
type Coordinator struct {
	proc    ProcessController
	store   SnapshotStore
	cfg     CoordinatorConfig
	logger  *slog.Logger
	metrics *metric.Registry

	// sem admits one operation at a time; unlike a mutex, waiting for it
	// can be abandoned through the caller's context.
	sem   *semaphore.Weighted
	phase atomic.Int32
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(proc ProcessController, store SnapshotStore, cfg CoordinatorConfig) *Coordinator {
	if cfg.RestartPolicy == "" {
		cfg.RestartPolicy = RestartAlways
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Coordinator{
		proc:    proc,
		store:   store,
		cfg:     cfg,
		logger:  cfg.Logger.With("component", "coordinator"),
		metrics: cfg.Metrics,
		sem:     semaphore.NewWeighted(1),
	}
}

// Phase returns the current phase.
func (c *Coordinator) Phase() Phase {
	return Phase(c.phase.Load())
}

func (c *Coordinator) setPhase(p Phase) {
	c.phase.Store(int32(p))
}

// acquire waits for the critical section. The returned context keeps ctx
// values but is never cancelled, so an operation that has begun always
// runs to completion.
func (c *Coordinator) acquire(ctx context.Context) (context.Context, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, domain.ErrBusy.Wrap(err)
	}
	return context.WithoutCancel(ctx), nil
}

func (c *Coordinator) release() {
	c.setPhase(PhaseIdle)
	c.sem.Release(1)
}

// ServerStatus reports the managed server state.
func (c *Coordinator) ServerStatus(ctx context.Context) domain.ServerState {
	st := c.proc.Status(ctx)
	c.metrics.SetServerUp(st.IsRunning())
	return st
}

// ListSnapshots returns all snapshots, newest name first, with the
// current server state.
func (c *Coordinator) ListSnapshots(ctx context.Context) ([]domain.Snapshot, domain.ServerState, error) {
	snaps, err := c.store.List()
	if err != nil {
		return nil, c.ServerStatus(ctx), domain.ErrInternalServer.Wrap(err)
	}
	return snaps, c.ServerStatus(ctx), nil
}

// StartServer starts the managed server.
func (c *Coordinator) StartServer(ctx context.Context) (domain.ServerState, error) {
	opCtx, err := c.acquire(ctx)
	if err != nil {
		return c.ServerStatus(ctx), err
	}
	defer c.release()

	c.setPhase(PhaseStarting)
	err = c.start(opCtx)
	return c.ServerStatus(opCtx), err
}

// StopServer stops the managed server. Stopping a stopped server succeeds.
func (c *Coordinator) StopServer(ctx context.Context) (domain.ServerState, error) {
	opCtx, err := c.acquire(ctx)
	if err != nil {
		return c.ServerStatus(ctx), err
	}
	defer c.release()

	c.setPhase(PhaseStopping)
	err = c.stop(opCtx)
	return c.ServerStatus(opCtx), err
}

// CreateSnapshot stops the server, copies the working directory and starts
// the server again. An empty name derives one from the current time.
//
// When the stop fails nothing is copied and the stop error is returned.
func (c *Coordinator) CreateSnapshot(ctx context.Context, name string) (Result, error) {
	if name != "" {
		if err := domain.ValidateSnapshotName(name); err != nil {
			return Result{ServerStatus: c.ServerStatus(ctx)}, err
		}
	}

	opCtx, err := c.acquire(ctx)
	if err != nil {
		return Result{ServerStatus: c.ServerStatus(ctx)}, err
	}
	defer c.release()
	ctx = opCtx

	begin := time.Now()
	wasRunning := c.proc.Status(ctx).IsRunning()

	c.setPhase(PhaseStopping)
	if err := c.stop(ctx); err != nil {
		c.metrics.ObserveSnapshotOp(OpCreate, err, time.Since(begin))
		return Result{ServerStatus: c.ServerStatus(ctx)}, err
	}

	c.setPhase(PhaseOperating)
	snap, opErr := c.store.Create(name)
	if opErr != nil {
		c.logger.ErrorContext(ctx, "create snapshot failed", "snapshot", name, "error", opErr)
	} else {
		c.logger.InfoContext(ctx, "snapshot created", "snapshot", snap.Name)
	}

	res := Result{Snapshot: snap}
	c.finish(ctx, wasRunning, &res)
	c.metrics.ObserveSnapshotOp(OpCreate, opErr, time.Since(begin))
	return res, opErr
}

// RestoreSnapshot stops the server, saves the working directory as a
// pre-restore snapshot, replaces it with the named snapshot and starts the
// server again.
//
// A missing snapshot is reported before the server is touched. When the
// safety snapshot fails the working directory is left as it was. A missing
// working directory is restored without a safety snapshot and
// Result.SafetySnapshot stays empty.
func (c *Coordinator) RestoreSnapshot(ctx context.Context, name string) (Result, error) {
	ok, err := c.store.Exists(name)
	if err != nil {
		return Result{ServerStatus: c.ServerStatus(ctx)}, err
	}
	if !ok {
		return Result{ServerStatus: c.ServerStatus(ctx)}, domain.ErrSnapshotNotFound.WithDetails(name)
	}

	opCtx, err := c.acquire(ctx)
	if err != nil {
		return Result{ServerStatus: c.ServerStatus(ctx)}, err
	}
	defer c.release()
	ctx = opCtx

	begin := time.Now()
	wasRunning := c.proc.Status(ctx).IsRunning()

	c.setPhase(PhaseStopping)
	if err := c.stop(ctx); err != nil {
		c.metrics.ObserveSnapshotOp(OpRestore, err, time.Since(begin))
		return Result{ServerStatus: c.ServerStatus(ctx)}, err
	}

	c.setPhase(PhaseOperating)
	res := Result{Snapshot: domain.Snapshot{Name: name}}
	opErr := c.restore(ctx, name, &res)

	c.finish(ctx, wasRunning, &res)
	c.metrics.ObserveSnapshotOp(OpRestore, opErr, time.Since(begin))
	return res, opErr
}

func (c *Coordinator) restore(ctx context.Context, name string, res *Result) error {
	safety, err := c.createSafety()
	switch {
	case errors.Is(err, domain.ErrSourceMissing):
		// A missing working directory has nothing to save.
		c.logger.WarnContext(ctx, "working directory missing, restoring without safety snapshot",
			"snapshot", name, "error", err)
	case err != nil:
		c.logger.ErrorContext(ctx, "safety snapshot failed, restore aborted", "snapshot", name, "error", err)
		return err
	default:
		res.SafetySnapshot = safety.Name
		c.logger.InfoContext(ctx, "safety snapshot created", "snapshot", safety.Name)
	}

	// The target may have been removed by hand since the pre-check.
	if err := c.store.Restore(name); err != nil {
		c.logger.ErrorContext(ctx, "restore snapshot failed", "snapshot", name, "error", err)
		return err
	}
	c.logger.InfoContext(ctx, "snapshot restored", "snapshot", name)
	return nil
}

// createSafety takes the pre-restore snapshot, adding a numeric suffix
// when the derived name is already in use.
func (c *Coordinator) createSafety() (domain.Snapshot, error) {
	base := domain.DerivedName(domain.PreRestorePrefix, c.cfg.Now())
	name := base
	for i := 2; ; i++ {
		snap, err := c.store.Create(name)
		if !errors.Is(err, domain.ErrNameCollision) || i > safetyAttempts {
			return snap, err
		}
		name = fmt.Sprintf("%s-%d", base, i)
	}
}

// finish runs the Starting phase and fills the result's status fields.
func (c *Coordinator) finish(ctx context.Context, wasRunning bool, res *Result) {
	c.setPhase(PhaseStarting)
	if c.cfg.RestartPolicy == RestartPrevious && !wasRunning {
		c.logger.InfoContext(ctx, "server was stopped before the operation, not restarting")
	} else if err := c.start(ctx); err != nil && !errors.Is(err, domain.ErrAlreadyRunning) {
		res.RestartWarning = err
		c.metrics.IncRestartWarning()
		c.logger.WarnContext(ctx, "restart after operation failed", "error", err)
	}
	res.ServerStatus = c.ServerStatus(ctx)
}

func (c *Coordinator) stop(ctx context.Context) error {
	err := c.proc.Stop(ctx, c.cfg.StopTimeout)
	c.metrics.ObserveProcess("stop", err)
	if err != nil {
		c.logger.ErrorContext(ctx, "stop server failed", "error", err)
		if !domain.IsDomainError(err, "") {
			err = domain.ErrStopFailed.Wrap(err)
		}
	}
	return err
}

func (c *Coordinator) start(ctx context.Context) error {
	err := c.proc.Start(ctx)
	c.metrics.ObserveProcess("start", err)
	if err != nil && !domain.IsDomainError(err, "") {
		err = domain.ErrStartFailed.Wrap(err)
	}
	return err
}
