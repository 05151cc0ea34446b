package recovery

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mcdonaldj/archivist/internal/adapters/osfs"
	"github.com/mcdonaldj/archivist/internal/adapters/ziparchiver"
	"github.com/mcdonaldj/archivist/internal/config"
	"github.com/mcdonaldj/archivist/internal/manifest"
	"github.com/mcdonaldj/archivist/internal/ports"
)

// Service provides recovery operations with injected dependencies.
type Service struct {
	fs       ports.FileSystem
	archiver ports.Archiver
}

// NewService creates a new recovery service with the given dependencies.
func NewService(fs ports.FileSystem, archiver ports.Archiver) *Service {
	return &Service{
		fs:       fs,
		archiver: archiver,
	}
}

// NewDefaultService creates a recovery service with real production dependencies.
func NewDefaultService() *Service {
	return NewService(
		osfs.New(),
		ziparchiver.New(),
	)
}

// ArchiveFolder returns the archive folder of a scanned directory.
func ArchiveFolder(cfg *config.Config, dir string) string {
	return filepath.Join(config.ExpandPath(dir), cfg.ArchiveDir)
}

// ListContainers returns the containers recorded for dir, oldest first.
func (s *Service) ListContainers(cfg *config.Config, dir string) ([]manifest.ContainerEntry, error) {
	m, err := manifest.Load(s.fs, ArchiveFolder(cfg, dir))
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	return m.Containers, nil
}

// Verify checks the integrity of a container by comparing checksums.
// An empty file selects the latest recorded container.
func (s *Service) Verify(cfg *config.Config, dir, file string) (*manifest.ContainerEntry, error) {
	folder := ArchiveFolder(cfg, dir)
	m, err := manifest.Load(s.fs, folder)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}

	var entry *manifest.ContainerEntry
	if file == "" {
		entry = m.Latest()
	} else {
		entry = m.Find(withZipExt(file))
	}

	if entry == nil {
		if file == "" {
			return nil, fmt.Errorf("no containers recorded in %s", folder)
		}
		return nil, fmt.Errorf("container not recorded: %s", file)
	}

	actual, err := manifest.ComputeSHA256(s.fs, filepath.Join(folder, entry.File))
	if err != nil {
		return entry, fmt.Errorf("computing checksum: %w", err)
	}
	if actual != entry.SHA256 {
		return entry, fmt.Errorf("checksum mismatch: expected %s, got %s", entry.SHA256, actual)
	}

	return entry, nil
}

// Extract unpacks a container into destDir. A container recorded in the
// manifest next to it is verified first.
func (s *Service) Extract(cfg *config.Config, zipPath, destDir string) error {
	zipPath = config.ExpandPath(zipPath)
	destDir = config.ExpandPath(destDir)

	if _, err := s.fs.Stat(zipPath); err != nil {
		return fmt.Errorf("container not found: %w", err)
	}

	folder := filepath.Dir(zipPath)
	m, err := manifest.Load(s.fs, folder)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}
	if entry := m.Find(filepath.Base(zipPath)); entry != nil {
		actual, err := manifest.ComputeSHA256(s.fs, zipPath)
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		if actual != entry.SHA256 {
			return fmt.Errorf("verification failed: checksum mismatch: expected %s, got %s", entry.SHA256, actual)
		}
	}

	if err := s.archiver.Extract(zipPath, destDir); err != nil {
		return fmt.Errorf("extracting container: %w", err)
	}
	return nil
}

func withZipExt(file string) string {
	if strings.HasSuffix(file, ".zip") {
		return file
	}
	return file + ".zip"
}

// ============================================================================
// Package-level functions using default service
// ============================================================================

var defaultService = NewDefaultService()

// ListContainers returns the containers recorded for dir.
// Uses the default production dependencies.
func ListContainers(cfg *config.Config, dir string) ([]manifest.ContainerEntry, error) {
	return defaultService.ListContainers(cfg, dir)
}

// Verify checks the integrity of a container by comparing checksums.
// Uses the default production dependencies.
func Verify(cfg *config.Config, dir, file string) (*manifest.ContainerEntry, error) {
	return defaultService.Verify(cfg, dir, file)
}

// Extract unpacks a container into destDir.
// Uses the default production dependencies.
func Extract(cfg *config.Config, zipPath, destDir string) error {
	return defaultService.Extract(cfg, zipPath, destDir)
}
