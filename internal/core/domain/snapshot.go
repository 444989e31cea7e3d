package domain

import (
	"strings"
	"time"
)

// Snapshot name prefixes for derived names.
const (
	BackupPrefix     = "backup-"
	PreRestorePrefix = "pre-restore-"

	// NameTimeLayout renders the creation time to the second.
	NameTimeLayout = "2006-01-02-15-04-05"

	maxNameLength = 128
)

// Snapshot describes one stored copy of the working directory.
type Snapshot struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// DerivedName returns prefix followed by t formatted to the second.
func DerivedName(prefix string, t time.Time) string {
	return prefix + t.Format(NameTimeLayout)
}

// ValidateSnapshotName checks that name can be used as a single directory
// entry under the snapshots root.
//
// Names beginning with '.' are reserved for in-progress staging directories.
func ValidateSnapshotName(name string) error {
	switch {
	case name == "":
		return ErrInvalidName.WithDetails("name is empty")
	case len(name) > maxNameLength:
		return ErrInvalidName.WithDetails("name is longer than 128 bytes")
	case strings.HasPrefix(name, "."):
		return ErrInvalidName.WithDetails("name must not start with '.'")
	case strings.ContainsAny(name, `/\`):
		return ErrInvalidName.WithDetails("name must not contain path separators")
	case strings.ContainsRune(name, 0):
		return ErrInvalidName.WithDetails("name must not contain NUL")
	}
	return nil
}
