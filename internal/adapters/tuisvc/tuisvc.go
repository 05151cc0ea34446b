// Package tuisvc provides the real implementation of ports.TUIService.
package tuisvc

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mcdonaldj/archivist/internal/adapters/osfs"
	"github.com/mcdonaldj/archivist/internal/adapters/ziparchiver"
	"github.com/mcdonaldj/archivist/internal/compare"
	"github.com/mcdonaldj/archivist/internal/config"
	"github.com/mcdonaldj/archivist/internal/manifest"
	"github.com/mcdonaldj/archivist/internal/ports"
	"github.com/mcdonaldj/archivist/internal/recovery"
)

// Service implements ports.TUIService over an archive folder.
type Service struct {
	fs       ports.FileSystem
	archiver ports.Archiver
	recovery *recovery.Service
}

// New creates a TUI service with real production dependencies.
func New() *Service {
	return NewWithDeps(osfs.New(), ziparchiver.New())
}

// NewWithDeps creates a TUI service with the given dependencies.
func NewWithDeps(fs ports.FileSystem, archiver ports.Archiver) *Service {
	return &Service{
		fs:       fs,
		archiver: archiver,
		recovery: recovery.NewService(fs, archiver),
	}
}

// LoadConfig loads the application configuration.
func (s *Service) LoadConfig() (*config.Config, error) {
	return config.Load()
}

// ListContainers returns every .zip in the archive folder of dir, newest
// first. Manifest records supply label and creation time when present.
func (s *Service) ListContainers(cfg *config.Config, dir string) ([]ports.TUIContainerInfo, error) {
	folder := recovery.ArchiveFolder(cfg, dir)

	entries, err := s.fs.ReadDir(folder)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []ports.TUIContainerInfo{}, nil
		}
		return nil, err
	}

	m, err := manifest.Load(s.fs, folder)
	if err != nil {
		return nil, err
	}

	result := []ports.TUIContainerInfo{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".zip" {
			continue
		}

		path := filepath.Join(folder, e.Name())
		info, err := s.fs.Stat(path)
		if err != nil {
			continue
		}

		item := ports.TUIContainerInfo{
			File:      e.Name(),
			Label:     labelOf(e.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		}
		if rec := m.Find(e.Name()); rec != nil {
			item.Label = rec.Label
			item.CreatedAt = rec.CreatedAt
			item.EntryCount = rec.EntryCount
			item.Recorded = true
		} else if files, err := s.archiver.List(path); err == nil {
			item.EntryCount = len(files)
		}

		result = append(result, item)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].File < result[j].File
	})

	return result, nil
}

// labelOf extracts the label from a <label>_archive_<timestamp>.zip name.
func labelOf(file string) string {
	if idx := strings.Index(file, "_archive_"); idx > 0 {
		return file[:idx]
	}
	return "-"
}

// ListEntries returns the entries of one container, sorted by name.
func (s *Service) ListEntries(cfg *config.Config, dir, file string) ([]ports.TUIEntryInfo, error) {
	files, err := s.archiver.List(filepath.Join(recovery.ArchiveFolder(cfg, dir), file))
	if err != nil {
		return nil, err
	}

	result := make([]ports.TUIEntryInfo, 0, len(files))
	for name, info := range files {
		result = append(result, ports.TUIEntryInfo{Name: name, Size: info.Size, CRC32: info.CRC32})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// VerifyContainer checks a container's checksum against the manifest.
func (s *Service) VerifyContainer(cfg *config.Config, dir, file string) error {
	_, err := s.recovery.Verify(cfg, dir, file)
	return err
}

// CompareContainers computes the entry-level differences of two containers.
func (s *Service) CompareContainers(cfg *config.Config, dir, file1, file2 string) (*ports.DiffResult, error) {
	folder := recovery.ArchiveFolder(cfg, dir)
	return compare.Containers(s.archiver, filepath.Join(folder, file1), filepath.Join(folder, file2))
}

// CompareEntry computes the line diff of one entry across two containers.
func (s *Service) CompareEntry(cfg *config.Config, dir, file1, file2 string, change ports.Change) (*ports.FileDiff, error) {
	folder := recovery.ArchiveFolder(cfg, dir)
	return compare.Entry(s.archiver, filepath.Join(folder, file1), filepath.Join(folder, file2), change), nil
}

// Compile-time check that Service implements ports.TUIService.
var _ ports.TUIService = (*Service)(nil)
