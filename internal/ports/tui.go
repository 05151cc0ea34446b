package ports

import (
	"time"

	"github.com/mcdonaldj/archivist/internal/config"
)

// TUIContainerInfo contains container metadata for display.
type TUIContainerInfo struct {
	File       string
	Label      string
	Size       int64
	EntryCount int
	CreatedAt  time.Time
	Recorded   bool // present in the manifest
}

// TUIEntryInfo describes one entry inside a container.
type TUIEntryInfo struct {
	Name  string
	Size  int64
	CRC32 uint32
}

// TUIService provides operations needed by the TUI.
// This abstraction allows the TUI to be tested without real filesystem/archive operations.
type TUIService interface {
	// LoadConfig loads the application configuration.
	LoadConfig() (*config.Config, error)

	// ListContainers returns the containers in the archive folder of dir, newest first.
	ListContainers(cfg *config.Config, dir string) ([]TUIContainerInfo, error)

	// ListEntries returns the entries of one container, sorted by name.
	ListEntries(cfg *config.Config, dir, file string) ([]TUIEntryInfo, error)

	// VerifyContainer checks a container's checksum against the manifest.
	// Returns nil if verified successfully, error otherwise.
	VerifyContainer(cfg *config.Config, dir, file string) error

	// CompareContainers computes the entry-level differences of two containers.
	CompareContainers(cfg *config.Config, dir, file1, file2 string) (*DiffResult, error)

	// CompareEntry computes the line diff of one entry across two containers.
	CompareEntry(cfg *config.Config, dir, file1, file2 string, change Change) (*FileDiff, error)
}
