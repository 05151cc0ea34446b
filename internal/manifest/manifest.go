// Package manifest records the containers written to an archive folder.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/mcdonaldj/archivist/internal/ports"
)

// FileName is the manifest's name inside the archive folder.
const FileName = "manifest.json"

// ContainerEntry records one container written to the archive folder.
type ContainerEntry struct {
	File       string    `json:"file"`
	Label      string    `json:"label"`
	SHA256     string    `json:"sha256"`
	SizeBytes  int64     `json:"size_bytes"`
	EntryCount int       `json:"entry_count"`
	Entries    []string  `json:"entries"`
	CreatedAt  time.Time `json:"created_at"`
}

// Manifest lists the containers written for one source directory.
type Manifest struct {
	Source     string           `json:"source"`
	Containers []ContainerEntry `json:"containers"`
}

func Path(archiveDir string) string {
	return filepath.Join(archiveDir, FileName)
}

// Load reads the manifest of archiveDir. A missing file yields an empty manifest.
func Load(fsys ports.FileSystem, archiveDir string) (*Manifest, error) {
	data, err := fsys.ReadFile(Path(archiveDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Manifest{Containers: []ContainerEntry{}}, nil
		}
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	return &m, nil
}

func (m *Manifest) Save(fsys ports.FileSystem, archiveDir string) error {
	if err := fsys.MkdirAll(archiveDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	return fsys.WriteFile(Path(archiveDir), data, 0644)
}

// Add appends entry. A previous entry for the same file (an overwritten
// container) is dropped so the newest record is always last.
func (m *Manifest) Add(entry ContainerEntry) {
	kept := m.Containers[:0]
	for _, c := range m.Containers {
		if c.File != entry.File {
			kept = append(kept, c)
		}
	}
	m.Containers = append(kept, entry)
}

func (m *Manifest) Latest() *ContainerEntry {
	if len(m.Containers) == 0 {
		return nil
	}
	return &m.Containers[len(m.Containers)-1]
}

// Find returns the entry recorded for file, or nil.
func (m *Manifest) Find(file string) *ContainerEntry {
	for i := range m.Containers {
		if m.Containers[i].File == file {
			return &m.Containers[i]
		}
	}
	return nil
}

// ComputeSHA256 calculates SHA256 hash of a file
func ComputeSHA256(fsys ports.FileSystem, path string) (string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
