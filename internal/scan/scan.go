// Package scan classifies the direct children of a directory: which entries
// are files, which extensions they carry, and which names must never be
// archived or deleted.
package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/mcdonaldj/archivist/internal/ports"
)

// Entry is a regular file directly inside the scanned directory.
type Entry struct {
	Name string
	Path string
	Ext  string // without the leading dot; empty when the name has none
}

// Options tunes classification.
type Options struct {
	// ExecutableName is the file name of the running binary. It is always
	// ignored, and its extension (if any) is treated as a binary marker.
	ExecutableName string
	// BinaryExtensions are removed from the extension set.
	BinaryExtensions []string
	// IgnorePatterns are extra glob patterns matched against file names.
	IgnorePatterns []string
}

// Inventory is the immutable result of scanning one directory.
type Inventory struct {
	Dir string
	// Files holds the direct regular files in directory order.
	Files []Entry
	// Extensions is the distinct extension set in order of first appearance,
	// with binary markers removed.
	Extensions []string
	// Counts maps every extension seen (binary markers included) to its file count.
	Counts map[string]int
	// BinaryExcluded lists the binary-marker extensions that were removed.
	BinaryExcluded []string
	Ignore         *IgnoreList
}

// FileCount returns the number of direct files, directories excluded.
func (inv *Inventory) FileCount() int {
	return len(inv.Files)
}

// HasExtension reports whether ext is in the extension set.
func (inv *Inventory) HasExtension(ext string) bool {
	for _, e := range inv.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// FilesWithExtension returns the files whose extension equals ext.
func (inv *Inventory) FilesWithExtension(ext string) []Entry {
	var out []Entry
	for _, f := range inv.Files {
		if f.Ext == ext {
			out = append(out, f)
		}
	}
	return out
}

// Classify lists dir without recursing and builds its Inventory.
func Classify(fsys ports.FileSystem, dir string, opts Options) (*Inventory, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	inv := &Inventory{
		Dir:    dir,
		Counts: make(map[string]int),
	}

	var all []string
	for _, entry := range entries {
		all = append(all, entry.Name())
		if !isFile(fsys, dir, entry) {
			continue
		}

		f := Entry{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
			Ext:  Extension(entry.Name()),
		}
		inv.Files = append(inv.Files, f)

		if f.Ext == "" {
			continue
		}
		if inv.Counts[f.Ext] == 0 {
			inv.Extensions = append(inv.Extensions, f.Ext)
		}
		inv.Counts[f.Ext]++
	}

	inv.Extensions, inv.BinaryExcluded = removeBinary(inv.Extensions, binaryMarkers(opts))
	inv.Ignore = NewIgnoreList(opts.ExecutableName, all, opts.IgnorePatterns)

	return inv, nil
}

// isFile reports whether entry is a regular file, following symlinks.
// Broken links and special files are not files.
func isFile(fsys ports.FileSystem, dir string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink != 0 {
		info, err := fsys.Stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			return false
		}
		return info.Mode().IsRegular()
	}
	return entry.Type().IsRegular()
}

// Extension returns the part of name after its final dot. Names whose only
// dot is the leading one, and names ending in a dot, have no extension.
func Extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return ""
	}
	return name[idx+1:]
}

func binaryMarkers(opts Options) []string {
	markers := append([]string{}, opts.BinaryExtensions...)
	if ext := Extension(opts.ExecutableName); ext != "" {
		markers = append(markers, ext)
	}
	return markers
}

func removeBinary(exts, markers []string) (kept, removed []string) {
	isMarker := make(map[string]bool, len(markers))
	for _, m := range markers {
		isMarker[strings.TrimPrefix(m, ".")] = true
	}
	kept = []string{}
	for _, ext := range exts {
		if isMarker[ext] {
			removed = append(removed, ext)
			continue
		}
		kept = append(kept, ext)
	}
	return kept, removed
}
