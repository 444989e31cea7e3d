package process

import (
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/procfs"
)

// Finder locates live processes by command line.
type Finder interface {
	// Find returns the PIDs of processes whose command line contains
	// pattern. The calling process is never included.
	Find(pattern string) ([]int, error)
}

// ProcFinder implements Finder by reading /proc.
type ProcFinder struct {
	fs   procfs.FS
	self int
}

// NewProcFinder returns a Finder reading the proc filesystem mounted at
// mountPoint, or at the default location when mountPoint is empty.
func NewProcFinder(mountPoint string) (*ProcFinder, error) {
	var (
		fs  procfs.FS
		err error
	)
	if mountPoint == "" {
		fs, err = procfs.NewDefaultFS()
	} else {
		fs, err = procfs.NewFS(mountPoint)
	}
	if err != nil {
		return nil, fmt.Errorf("process: open procfs: %w", err)
	}
	return &ProcFinder{fs: fs, self: os.Getpid()}, nil
}

// Find implements Finder.
func (f *ProcFinder) Find(pattern string) ([]int, error) {
	if pattern == "" {
		return nil, fmt.Errorf("process: empty match pattern")
	}
	procs, err := f.fs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("process: list processes: %w", err)
	}

	var pids []int
	for _, p := range procs {
		if p.PID == f.self {
			continue
		}
		// Zombies report an empty command line and exited processes an
		// error; neither holds the working directory open.
		args, err := p.CmdLine()
		if err != nil || len(args) == 0 {
			continue
		}
		if strings.Contains(strings.Join(args, " "), pattern) {
			pids = append(pids, p.PID)
		}
	}
	return pids, nil
}
