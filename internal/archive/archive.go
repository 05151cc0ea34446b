// Package archive writes the files of a scanned directory into zip containers.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/mcdonaldj/archivist/internal/manifest"
	"github.com/mcdonaldj/archivist/internal/ports"
	"github.com/mcdonaldj/archivist/internal/scan"
)

// Mode selects how files are grouped into containers.
type Mode int

const (
	// All puts every file into one container labelled "full".
	All Mode = iota + 1
	// PerExtension writes one container per detected extension.
	PerExtension
	// Selected writes one container per user-selected extension.
	Selected
)

// FullLabel labels the single container of mode All.
const FullLabel = "full"

func (m Mode) String() string {
	switch m {
	case All:
		return "all files in one archive"
	case PerExtension:
		return "one archive per file type"
	case Selected:
		return "one archive per selected file type"
	}
	return "unknown"
}

// Target is one container to be written and the files that belong in it.
type Target struct {
	Label string
	Files []scan.Entry
}

// Plan groups the files of inv into targets. Ignored files never appear.
// Files without an extension only take part in mode All.
func Plan(inv *scan.Inventory, mode Mode, selected []string) []Target {
	switch mode {
	case All:
		return []Target{{Label: FullLabel, Files: keep(inv, inv.Files)}}
	case PerExtension:
		return perExtension(inv, inv.Extensions)
	case Selected:
		return perExtension(inv, selected)
	}
	return nil
}

func perExtension(inv *scan.Inventory, exts []string) []Target {
	targets := make([]Target, 0, len(exts))
	for _, ext := range exts {
		targets = append(targets, Target{Label: ext, Files: keep(inv, inv.FilesWithExtension(ext))})
	}
	return targets
}

func keep(inv *scan.Inventory, files []scan.Entry) []scan.Entry {
	var out []scan.Entry
	for _, f := range files {
		if !inv.Ignore.Match(f.Name) {
			out = append(out, f)
		}
	}
	return out
}

// ContainerName returns <label>_archive_<Y>_<M>_<D>_<h>_<m>.zip with
// unpadded components.
func ContainerName(label string, t time.Time) string {
	return fmt.Sprintf("%s_archive_%d_%d_%d_%d_%d.zip",
		label, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute())
}

// Failure is a file that could not be added to a container.
type Failure struct {
	Path string
	Err  error
}

// Container is the outcome of writing one target.
type Container struct {
	Label     string
	Path      string
	CreatedAt time.Time
	// Archived holds the files whose bytes were fully written.
	Archived []scan.Entry
	Failures []Failure
	// FinalizeErr is set when the central directory or the file could not be
	// closed. The container is then unusable but the run goes on.
	FinalizeErr error
}

// OK reports whether the container was finalized.
func (c Container) OK() bool {
	return c.FinalizeErr == nil
}

// Setup failure operations.
const (
	OpMkdir  = "mkdir"
	OpCreate = "create"
)

// SetupError is an unrecoverable failure preparing a container.
type SetupError struct {
	Op   string
	Path string
	Err  error
}

func (e *SetupError) Error() string {
	if e.Op == OpMkdir {
		return fmt.Sprintf("creating archive directory %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("creating zip file %s: %v", e.Path, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// Builder writes containers below <dir>/<ArchiveDir>.
type Builder struct {
	FS       ports.FileSystem
	Archiver ports.Archiver
	Clock    ports.Clock

	ArchiveDir  string
	Method      ports.Method
	UniqueNames bool
}

// Folder returns the archive folder for a scanned directory.
func (b *Builder) Folder(dir string) string {
	return filepath.Join(dir, b.ArchiveDir)
}

// Build writes one container per target, in order. It stops at the first
// *SetupError and returns it with the containers completed so far.
func (b *Builder) Build(inv *scan.Inventory, targets []Target) ([]Container, error) {
	folder := b.Folder(inv.Dir)
	var done []Container

	for _, t := range targets {
		if err := b.FS.MkdirAll(folder, 0755); err != nil {
			return done, &SetupError{Op: OpMkdir, Path: folder, Err: err}
		}

		now := b.Clock.Now()
		path := filepath.Join(folder, ContainerName(t.Label, now))
		if b.UniqueNames {
			path = b.nextAvailable(path)
		}

		c, err := b.write(path, t)
		if err != nil {
			return done, err
		}
		c.CreatedAt = now
		done = append(done, c)
	}
	return done, nil
}

func (b *Builder) write(path string, t Target) (Container, error) {
	c := Container{Label: t.Label, Path: path}

	out, err := b.FS.Create(path)
	if err != nil {
		return c, &SetupError{Op: OpCreate, Path: path, Err: err}
	}

	w, err := b.Archiver.Create(out, b.Method)
	if err != nil {
		out.Close()
		return c, &SetupError{Op: OpCreate, Path: path, Err: err}
	}

	for _, f := range t.Files {
		if err := b.add(w, f); err != nil {
			c.Failures = append(c.Failures, Failure{Path: f.Path, Err: err})
			continue
		}
		c.Archived = append(c.Archived, f)
	}

	// Close zip writer first to flush data
	if err := w.Close(); err != nil {
		c.FinalizeErr = fmt.Errorf("finishing zip file: %w", err)
	}
	if err := out.Close(); err != nil && c.FinalizeErr == nil {
		c.FinalizeErr = fmt.Errorf("closing zip file: %w", err)
	}
	return c, nil
}

func (b *Builder) add(w ports.ContainerWriter, f scan.Entry) error {
	src, err := b.FS.Open(f.Path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	info, err := src.Stat()
	if err != nil {
		src.Close()
		return fmt.Errorf("reading file info: %w", err)
	}

	addErr := w.Add(f.Name, info, src)
	src.Close() // Close immediately, don't defer in loop
	if addErr != nil {
		return fmt.Errorf("copying file to zip: %w", addErr)
	}
	return nil
}

func (b *Builder) nextAvailable(p string) string {
	if _, err := b.FS.Stat(p); errors.Is(err, fs.ErrNotExist) {
		return p
	}
	dir := filepath.Dir(p)
	base := filepath.Base(p)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	for i := 1; i < 10000; i++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s-%d%s", name, i, ext))
		if _, err := b.FS.Stat(cand); errors.Is(err, fs.ErrNotExist) {
			return cand
		}
	}
	return p
}

// Record adds the finalized containers to the manifest of dir's archive folder.
func (b *Builder) Record(dir string, containers []Container) error {
	folder := b.Folder(dir)
	m, err := manifest.Load(b.FS, folder)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}
	m.Source = dir

	for _, c := range containers {
		if !c.OK() {
			continue
		}
		info, err := b.FS.Stat(c.Path)
		if err != nil {
			return fmt.Errorf("stat zip: %w", err)
		}
		checksum, err := manifest.ComputeSHA256(b.FS, c.Path)
		if err != nil {
			return fmt.Errorf("computing checksum: %w", err)
		}

		names := make([]string, 0, len(c.Archived))
		for _, f := range c.Archived {
			names = append(names, f.Name)
		}
		m.Add(manifest.ContainerEntry{
			File:       filepath.Base(c.Path),
			Label:      c.Label,
			SHA256:     checksum,
			SizeBytes:  info.Size(),
			EntryCount: len(names),
			Entries:    names,
			CreatedAt:  c.CreatedAt,
		})
	}

	if err := m.Save(b.FS, folder); err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	return nil
}

// FormatSize formats bytes as human-readable
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
