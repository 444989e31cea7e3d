package snapshot

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/worldsnap-go/internal/core/domain"
	"github.com/yndnr/worldsnap-go/pkg/dircopy"
)

const (
	partialPrefix = ".partial-"
	restorePrefix = ".worldsnap-restore-"

	stagedName = "world"
	asideName  = "previous"
)

// Config configures a Store.
type Config struct {
	// WorldDir is the working directory snapshots are taken of.
	WorldDir string

	// SnapshotsDir holds one directory per snapshot.
	SnapshotsDir string

	// StagingDir holds temporary trees during restore. Defaults to the
	// parent of WorldDir so the final rename stays on one filesystem.
	StagingDir string

	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Store is the on-disk collection of snapshots.
//
// Create and Restore are serialized by an internal mutex. List and Names
// may run concurrently with them and never observe a partially written
// snapshot.
type Store struct {
	cfg    Config
	logger *slog.Logger
	mu     sync.Mutex

	// move relocates a directory during restore. Tests replace it.
	move func(src, dst string) error
}

// NewStore validates cfg and creates the snapshots directory.
func NewStore(cfg Config) (*Store, error) {
	if cfg.WorldDir == "" {
		return nil, fmt.Errorf("snapshot: world dir is required")
	}
	if cfg.SnapshotsDir == "" {
		return nil, fmt.Errorf("snapshot: snapshots dir is required")
	}

	world, err := filepath.Abs(cfg.WorldDir)
	if err != nil {
		return nil, fmt.Errorf("snapshot: resolve world dir: %w", err)
	}
	// A symlinked world is snapshotted and restored through its target.
	if world, err = resolve(world); err != nil {
		return nil, fmt.Errorf("snapshot: resolve world dir: %w", err)
	}
	snapshots, err := filepath.Abs(cfg.SnapshotsDir)
	if err != nil {
		return nil, fmt.Errorf("snapshot: resolve snapshots dir: %w", err)
	}
	if snapshots, err = resolve(snapshots); err != nil {
		return nil, fmt.Errorf("snapshot: resolve snapshots dir: %w", err)
	}
	staging := cfg.StagingDir
	if staging == "" {
		staging = filepath.Dir(world)
	}
	if staging, err = filepath.Abs(staging); err != nil {
		return nil, fmt.Errorf("snapshot: resolve staging dir: %w", err)
	}

	if world == snapshots || within(world, snapshots) || within(snapshots, world) {
		return nil, fmt.Errorf("snapshot: world dir %s and snapshots dir %s must not overlap", world, snapshots)
	}
	if staging == world || within(world, staging) {
		return nil, fmt.Errorf("snapshot: staging dir %s must be outside the world dir", staging)
	}

	if err := os.MkdirAll(snapshots, 0o750); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}

	cfg.WorldDir = world
	cfg.SnapshotsDir = snapshots
	cfg.StagingDir = staging
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Store{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "snapshot"),
		move:   dircopy.Move,
	}, nil
}

// resolve follows symlinks in path. A path that does not exist yet is
// returned unchanged.
func resolve(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if errors.Is(err, os.ErrNotExist) {
		return path, nil
	}
	return resolved, err
}

// within reports whether path lies strictly below parent.
func within(parent, path string) bool {
	rel, err := filepath.Rel(parent, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// WorldDir returns the absolute path of the working directory.
func (s *Store) WorldDir() string {
	return s.cfg.WorldDir
}

// Path returns the directory of the named snapshot.
func (s *Store) Path(name string) string {
	return filepath.Join(s.cfg.SnapshotsDir, name)
}

// Exists reports whether a snapshot named name is stored.
func (s *Store) Exists(name string) (bool, error) {
	if err := domain.ValidateSnapshotName(name); err != nil {
		return false, err
	}
	// Lstat, so a symlink in the snapshots directory is not a snapshot,
	// the same as in List.
	info, err := os.Lstat(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// List returns all snapshots sorted by name, newest derived name first.
// A missing snapshots directory yields an empty list.
func (s *Store) List() ([]domain.Snapshot, error) {
	entries, err := os.ReadDir(s.cfg.SnapshotsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot: list: %w", err)
	}

	snaps := make([]domain.Snapshot, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		snaps = append(snaps, domain.Snapshot{Name: e.Name(), CreatedAt: info.ModTime()})
	}
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].Name > snaps[j].Name
	})
	return snaps, nil
}

// Count returns the number of stored snapshots.
func (s *Store) Count() (int, error) {
	snaps, err := s.List()
	return len(snaps), err
}

// Names returns a sequence over the snapshot names in List order. The
// directory is read each time the sequence is ranged over.
func (s *Store) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		snaps, err := s.List()
		if err != nil {
			s.logger.Warn("list snapshots failed", "error", err)
			return
		}
		for _, snap := range snaps {
			if !yield(snap.Name) {
				return
			}
		}
	}
}

// Create copies the working directory into a new snapshot. An empty name
// derives one from the current time.
func (s *Store) Create(name string) (domain.Snapshot, error) {
	now := s.cfg.Now()
	if name == "" {
		name = domain.DerivedName(domain.BackupPrefix, now)
	}
	if err := domain.ValidateSnapshotName(name); err != nil {
		return domain.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.Path(name)
	if ok, err := dircopy.Exists(dst); err != nil {
		return domain.Snapshot{}, domain.ErrInternalServer.Wrap(err)
	} else if ok {
		return domain.Snapshot{}, domain.ErrNameCollision.WithDetails(name)
	}

	if info, err := os.Stat(s.cfg.WorldDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Snapshot{}, domain.ErrSourceMissing.WithDetails(s.cfg.WorldDir)
		}
		return domain.Snapshot{}, domain.ErrCopyFailed.Wrap(err)
	} else if !info.IsDir() {
		return domain.Snapshot{}, domain.ErrSourceMissing.WithDetails(s.cfg.WorldDir + " is not a directory")
	}

	partial, err := os.MkdirTemp(s.cfg.SnapshotsDir, partialPrefix)
	if err != nil {
		return domain.Snapshot{}, domain.ErrCopyFailed.Wrap(err)
	}
	defer s.remove(partial)

	start := time.Now()
	staged := filepath.Join(partial, stagedName)
	if err := dircopy.Copy(s.cfg.WorldDir, staged); err != nil {
		return domain.Snapshot{}, domain.ErrCopyFailed.Wrap(err)
	}
	if err := os.Rename(staged, dst); err != nil {
		return domain.Snapshot{}, domain.ErrMoveFailed.Wrap(err)
	}
	// The snapshot root carries its creation time; everything below keeps
	// the working directory's times.
	if err := os.Chtimes(dst, now, now); err != nil {
		s.logger.Warn("set snapshot time failed", "snapshot", name, "error", err)
	}

	s.logger.Info("snapshot created", "snapshot", name, "duration", time.Since(start))
	return domain.Snapshot{Name: name, CreatedAt: now}, nil
}

// Restore replaces the working directory with the named snapshot.
//
// When the final move fails the previous working directory is put back, so
// the working directory is never left absent unless rollback also fails.
// When it cannot be moved aside nothing is moved in.
func (s *Store) Restore(name string) error {
	ok, err := s.Exists(name)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSnapshotNotFound.WithDetails(name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.cfg.StagingDir, 0o750); err != nil {
		return domain.ErrCopyFailed.Wrap(err)
	}
	staging, err := os.MkdirTemp(s.cfg.StagingDir, restorePrefix)
	if err != nil {
		return domain.ErrCopyFailed.Wrap(err)
	}
	defer s.remove(staging)

	start := time.Now()
	staged := filepath.Join(staging, stagedName)
	if err := dircopy.Copy(s.Path(name), staged); err != nil {
		return domain.ErrCopyFailed.Wrap(err)
	}

	// A missing working directory has nothing to set aside.
	aside := ""
	if ok, err := dircopy.Exists(s.cfg.WorldDir); err != nil {
		return domain.ErrMoveFailed.Wrap(err)
	} else if ok {
		candidate := filepath.Join(staging, asideName)
		if err := s.move(s.cfg.WorldDir, candidate); err != nil {
			s.logger.Error("move working directory aside failed", "error", err)
			// A cross-device move copies first, so a failed delete of the
			// source still leaves a complete copy to put back.
			if ok, _ := dircopy.Exists(candidate); ok {
				s.rollback(candidate)
			}
			return domain.ErrMoveFailed.Wrap(err)
		}
		aside = candidate
	}

	if err := os.MkdirAll(filepath.Dir(s.cfg.WorldDir), 0o750); err != nil {
		s.rollback(aside)
		return domain.ErrMoveFailed.Wrap(err)
	}
	if err := s.move(staged, s.cfg.WorldDir); err != nil {
		s.rollback(aside)
		return domain.ErrMoveFailed.Wrap(err)
	}

	s.logger.Info("snapshot restored", "snapshot", name, "duration", time.Since(start))
	return nil
}

func (s *Store) rollback(aside string) {
	if aside == "" {
		return
	}
	// A failed move may leave a partial tree behind.
	if err := dircopy.Remove(s.cfg.WorldDir); err != nil {
		s.logger.Error("clear partial working directory failed", "error", err)
	}
	if err := dircopy.Move(aside, s.cfg.WorldDir); err != nil {
		s.logger.Error("restore previous working directory failed", "path", aside, "error", err)
		return
	}
	s.logger.Warn("previous working directory restored after failed restore")
}

func (s *Store) remove(path string) {
	if err := dircopy.Remove(path); err != nil {
		s.logger.Warn("remove staging directory failed", "path", path, "error", err)
	}
}

// Sweep removes staging directories left behind by an interrupted create
// or restore. It returns the number of directories removed.
func (s *Store) Sweep() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	var errs []error
	for _, dir := range []struct{ root, prefix string }{
		{s.cfg.SnapshotsDir, partialPrefix},
		{s.cfg.StagingDir, restorePrefix},
	} {
		entries, err := os.ReadDir(dir.root)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		for _, e := range entries {
			if !e.IsDir() || !strings.HasPrefix(e.Name(), dir.prefix) {
				continue
			}
			path := filepath.Join(dir.root, e.Name())
			if err := dircopy.Remove(path); err != nil {
				errs = append(errs, err)
				continue
			}
			s.logger.Info("removed stale staging directory", "path", path)
			removed++
		}
	}
	return removed, errors.Join(errs...)
}
