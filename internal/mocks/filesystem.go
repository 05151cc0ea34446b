// Package mocks provides mock implementations for testing.
package mocks

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mcdonaldj/archivist/internal/ports"
)

// MockFileSystem implements ports.FileSystem for testing.
type MockFileSystem struct {
	// Files maps paths to file contents for ReadFile/WriteFile/Open
	Files map[string][]byte
	// Dirs maps paths to directory entries for ReadDir
	Dirs map[string][]os.DirEntry
	// Stats maps paths to FileInfo for Stat
	Stats map[string]os.FileInfo
	// Errors maps paths to errors (for simulating failures on any operation)
	Errors map[string]error
	// OpErrors maps "Op:path" (e.g. "Remove:/d/a.txt") to errors for a single operation
	OpErrors map[string]error

	// Call tracking
	MkdirCalls  []string
	RemoveCalls []string
	CreateCalls []string
}

// NewMockFileSystem creates a new mock filesystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		Files:    make(map[string][]byte),
		Dirs:     make(map[string][]os.DirEntry),
		Stats:    make(map[string]os.FileInfo),
		Errors:   make(map[string]error),
		OpErrors: make(map[string]error),
	}
}

// AddFile registers a regular file inside dir, creating the directory listing
// on first use. Entries are kept sorted by name, as os.ReadDir returns them.
func (m *MockFileSystem) AddFile(dir, name string, content []byte) string {
	path := filepath.Join(dir, name)
	m.Files[path] = content
	m.Stats[path] = &mockFileInfo{name: name, size: int64(len(content)), mode: 0644}
	m.addEntry(dir, NewDirEntry(name, false))
	return path
}

// AddDir registers a subdirectory inside dir.
func (m *MockFileSystem) AddDir(dir, name string) string {
	path := filepath.Join(dir, name)
	m.Stats[path] = &mockFileInfo{name: name, isDir: true, mode: fs.ModeDir | 0755}
	if _, ok := m.Dirs[path]; !ok {
		m.Dirs[path] = []os.DirEntry{}
	}
	m.addEntry(dir, NewDirEntry(name, true))
	return path
}

func (m *MockFileSystem) addEntry(dir string, entry os.DirEntry) {
	entries := append(m.Dirs[dir], entry)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	m.Dirs[dir] = entries
	if _, ok := m.Stats[dir]; !ok {
		m.Stats[dir] = &mockFileInfo{name: filepath.Base(dir), isDir: true, mode: fs.ModeDir | 0755}
	}
}

func (m *MockFileSystem) fail(op, name string) error {
	if err, ok := m.OpErrors[op+":"+name]; ok {
		return err
	}
	if err, ok := m.Errors[name]; ok {
		return err
	}
	return nil
}

// ReadDir reads the named directory and returns directory entries.
func (m *MockFileSystem) ReadDir(name string) ([]os.DirEntry, error) {
	if err := m.fail("ReadDir", name); err != nil {
		return nil, err
	}
	if entries, ok := m.Dirs[name]; ok {
		return entries, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// Stat returns file info for the named file.
func (m *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	if err := m.fail("Stat", name); err != nil {
		return nil, err
	}
	if info, ok := m.Stats[name]; ok {
		return info, nil
	}
	// Check if we have file content (implies file exists)
	if content, ok := m.Files[name]; ok {
		return &mockFileInfo{name: filepath.Base(name), size: int64(len(content))}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// MkdirAll creates a directory along with any necessary parents.
func (m *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	m.MkdirCalls = append(m.MkdirCalls, path)
	if err := m.fail("MkdirAll", path); err != nil {
		return err
	}
	// Mark directory as existing
	m.Stats[path] = &mockFileInfo{name: filepath.Base(path), isDir: true, mode: fs.ModeDir | perm}
	return nil
}

// WriteFile writes data to the named file, creating it if necessary.
func (m *MockFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if err := m.fail("WriteFile", name); err != nil {
		return err
	}
	m.Files[name] = data
	return nil
}

// ReadFile reads the named file and returns the contents.
func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	if err := m.fail("ReadFile", name); err != nil {
		return nil, err
	}
	if content, ok := m.Files[name]; ok {
		return content, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// Remove removes the named file and drops it from its directory listing.
func (m *MockFileSystem) Remove(name string) error {
	m.RemoveCalls = append(m.RemoveCalls, name)
	if err := m.fail("Remove", name); err != nil {
		return err
	}
	if _, ok := m.Files[name]; !ok {
		if _, ok := m.Stats[name]; !ok {
			return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
		}
	}
	delete(m.Files, name)
	delete(m.Stats, name)

	dir, base := filepath.Dir(name), filepath.Base(name)
	entries := m.Dirs[dir]
	for i, e := range entries {
		if e.Name() == base {
			m.Dirs[dir] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	return nil
}

// Open opens the named file for reading.
func (m *MockFileSystem) Open(name string) (fs.File, error) {
	if err := m.fail("Open", name); err != nil {
		return nil, err
	}
	content, ok := m.Files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	info, _ := m.Stat(name)
	return &mockFile{info: info, reader: bytes.NewReader(content)}, nil
}

// Create creates or truncates the named file. Bytes land in Files on Close.
func (m *MockFileSystem) Create(name string) (io.WriteCloser, error) {
	m.CreateCalls = append(m.CreateCalls, name)
	if err := m.fail("Create", name); err != nil {
		return nil, err
	}
	m.Files[name] = []byte{}
	return &mockWriter{fs: m, name: name}, nil
}

// NewDirEntry builds an os.DirEntry for use in Dirs.
func NewDirEntry(name string, isDir bool) os.DirEntry {
	return &mockDirEntry{name: name, isDir: isDir}
}

// NewFileInfo builds an os.FileInfo for a regular file of the given size.
func NewFileInfo(name string, size int64) os.FileInfo {
	return &mockFileInfo{name: name, size: size, mode: 0644, modTime: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
}

// mockFileInfo implements os.FileInfo for testing.
type mockFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
	isDir   bool
}

func (fi *mockFileInfo) Name() string       { return fi.name }
func (fi *mockFileInfo) Size() int64        { return fi.size }
func (fi *mockFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *mockFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *mockFileInfo) IsDir() bool        { return fi.isDir }
func (fi *mockFileInfo) Sys() interface{}   { return nil }

// mockDirEntry implements os.DirEntry for testing.
type mockDirEntry struct {
	name  string
	isDir bool
}

func (d *mockDirEntry) Name() string { return d.name }
func (d *mockDirEntry) IsDir() bool  { return d.isDir }
func (d *mockDirEntry) Type() fs.FileMode {
	if d.isDir {
		return fs.ModeDir
	}
	return 0
}
func (d *mockDirEntry) Info() (fs.FileInfo, error) {
	mode := os.FileMode(0644)
	if d.isDir {
		mode = fs.ModeDir | 0755
	}
	return &mockFileInfo{name: d.name, isDir: d.isDir, mode: mode}, nil
}

// mockFile implements fs.File for testing.
type mockFile struct {
	info   os.FileInfo
	reader *bytes.Reader
}

func (f *mockFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *mockFile) Read(p []byte) (int, error) { return f.reader.Read(p) }
func (f *mockFile) Close() error               { return nil }

// mockWriter buffers writes and commits them to the filesystem on Close.
type mockWriter struct {
	fs   *MockFileSystem
	name string
	buf  bytes.Buffer
}

func (w *mockWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *mockWriter) Close() error {
	if err := w.fs.fail("Close", w.name); err != nil {
		return err
	}
	w.fs.Files[w.name] = w.buf.Bytes()
	return nil
}

// Compile-time check that MockFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*MockFileSystem)(nil)
