// Package deletion decides which source files may be removed after archiving
// and removes them.
package deletion

import (
	"github.com/mcdonaldj/archivist/internal/archive"
	"github.com/mcdonaldj/archivist/internal/config"
	"github.com/mcdonaldj/archivist/internal/ports"
	"github.com/mcdonaldj/archivist/internal/scan"
)

// Failure records a file that could not be removed.
type Failure struct {
	Path string
	Err  error
}

// Summary is the outcome of Delete: the removed files and the ones that failed.
type Summary struct {
	Deleted  []scan.Entry
	Failures []Failure
}

// Plan returns the files eligible for deletion. With config.DeleteArchived
// that is every file written into a finalized container this run. With
// config.DeleteSelection it is every direct file (mode Selected: every file
// with a selected extension). Ignored files are never included.
func Plan(scope string, mode archive.Mode, inv *scan.Inventory, containers []archive.Container, selected []string) []scan.Entry {
	var candidates []scan.Entry
	switch scope {
	case config.DeleteSelection:
		if mode == archive.Selected {
			for _, ext := range selected {
				candidates = append(candidates, inv.FilesWithExtension(ext)...)
			}
		} else {
			candidates = inv.Files
		}
	default:
		for _, c := range containers {
			if c.OK() {
				candidates = append(candidates, c.Archived...)
			}
		}
	}

	seen := make(map[string]bool)
	var out []scan.Entry
	for _, f := range candidates {
		if seen[f.Path] || inv.Ignore.Match(f.Name) {
			continue
		}
		seen[f.Path] = true
		out = append(out, f)
	}
	return out
}

// Delete removes every entry, continuing past failures.
func Delete(fsys ports.FileSystem, entries []scan.Entry) Summary {
	sum := Summary{}
	for _, f := range entries {
		if err := fsys.Remove(f.Path); err != nil {
			sum.Failures = append(sum.Failures, Failure{Path: f.Path, Err: err})
			continue
		}
		sum.Deleted = append(sum.Deleted, f)
	}
	return sum
}
