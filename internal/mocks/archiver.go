package mocks

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/mcdonaldj/archivist/internal/ports"
)

// MockArchiver implements ports.Archiver for testing.
type MockArchiver struct {
	// Containers records every container started with Create, in order
	Containers []*MockContainer
	// ExtractCalls records calls to Extract
	ExtractCalls []ExtractCall
	// ListResults maps zip paths to file listings
	ListResults map[string]map[string]ports.FileInfo
	// ReadResults maps "zipPath:entryName" to content
	ReadResults map[string]string
	// Errors maps method calls to errors
	Errors map[string]error
	// AddErrors maps entry names to errors returned by MockContainer.Add
	AddErrors map[string]error
}

// ExtractCall records parameters of an Extract call.
type ExtractCall struct {
	ZipPath string
	DestDir string
}

// MockContainer records the entries written to one container.
type MockContainer struct {
	Method  ports.Method
	Names   []string
	Entries map[string][]byte
	Closed  bool

	parent *MockArchiver
	out    io.Writer
}

// NewMockArchiver creates a new mock archiver.
func NewMockArchiver() *MockArchiver {
	return &MockArchiver{
		ListResults: make(map[string]map[string]ports.FileInfo),
		ReadResults: make(map[string]string),
		Errors:      make(map[string]error),
		AddErrors:   make(map[string]error),
	}
}

// Create starts a mock container streaming to w.
func (m *MockArchiver) Create(w io.Writer, method ports.Method) (ports.ContainerWriter, error) {
	if err, ok := m.Errors["Create"]; ok {
		return nil, err
	}
	c := &MockContainer{
		Method:  method,
		Entries: make(map[string][]byte),
		parent:  m,
		out:     w,
	}
	m.Containers = append(m.Containers, c)
	return c, nil
}

// Add records one entry.
func (c *MockContainer) Add(name string, info fs.FileInfo, r io.Reader) error {
	if err, ok := c.parent.AddErrors[name]; ok {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	c.Names = append(c.Names, name)
	c.Entries[name] = data
	return nil
}

// Close marks the container finished and writes a one-line summary to the
// underlying writer so callers can observe that bytes were produced.
func (c *MockContainer) Close() error {
	if err, ok := c.parent.Errors["Close"]; ok {
		return err
	}
	c.Closed = true
	_, err := fmt.Fprintf(c.out, "mock-zip %d entries\n", len(c.Names))
	return err
}

// Extract records the call.
func (m *MockArchiver) Extract(zipPath, destDir string) error {
	m.ExtractCalls = append(m.ExtractCalls, ExtractCall{
		ZipPath: zipPath,
		DestDir: destDir,
	})
	if err, ok := m.Errors["Extract"]; ok {
		return err
	}
	return nil
}

// List returns a map of entry names to their info from the archive.
func (m *MockArchiver) List(zipPath string) (map[string]ports.FileInfo, error) {
	if err, ok := m.Errors["List"]; ok {
		return nil, err
	}
	if result, ok := m.ListResults[zipPath]; ok {
		return result, nil
	}
	return nil, fmt.Errorf("open %s: no such file", zipPath)
}

// ReadFile reads the contents of an entry from inside a zip archive.
func (m *MockArchiver) ReadFile(zipPath, entryName string) (string, error) {
	if err, ok := m.Errors["ReadFile"]; ok {
		return "", err
	}
	if content, ok := m.ReadResults[zipPath+":"+entryName]; ok {
		return content, nil
	}
	return "", fmt.Errorf("file not found in archive: %s", entryName)
}

// Compile-time check that MockArchiver implements ports.Archiver.
var _ ports.Archiver = (*MockArchiver)(nil)
