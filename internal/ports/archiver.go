package ports

import (
	"io"
	"io/fs"
)

// Method selects how entry bytes are stored inside a container.
type Method int

const (
	// Store copies bytes without compression.
	Store Method = iota
	// Deflate compresses entries with DEFLATE.
	Deflate
)

func (m Method) String() string {
	switch m {
	case Store:
		return "store"
	case Deflate:
		return "deflate"
	}
	return "unknown"
}

// Archiver abstracts zip container operations for testability.
// Production code uses ZipArchiver adapter; tests use MockArchiver.
type Archiver interface {
	// Create starts a new, empty container that streams to w.
	// The caller closes the returned writer before closing w.
	Create(w io.Writer, method Method) (ContainerWriter, error)

	// Extract unpacks the container at zipPath into destDir.
	Extract(zipPath, destDir string) error

	// List returns the entries of a container keyed by entry name.
	List(zipPath string) (map[string]FileInfo, error)

	// ReadFile returns the contents of one entry of a container.
	ReadFile(zipPath, entryName string) (string, error)
}

// ContainerWriter adds entries to an open container.
type ContainerWriter interface {
	// Add writes one entry named name, copying its bytes from r.
	// info supplies size, mode and modification time for the entry header.
	Add(name string, info fs.FileInfo, r io.Reader) error

	// Close writes the central directory. The container is unusable
	// until Close returns nil.
	Close() error
}

// FileInfo contains metadata about a file in an archive.
type FileInfo struct {
	Size   int64
	CRC32  uint32
	Method uint16
}
