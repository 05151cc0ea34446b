package mocks

import (
	"github.com/mcdonaldj/archivist/internal/config"
	"github.com/mcdonaldj/archivist/internal/ports"
)

// MockTUIService implements ports.TUIService for testing.
type MockTUIService struct {
	// ConfigResult is the config to return from LoadConfig
	ConfigResult *config.Config
	// ConfigError is the error to return from LoadConfig
	ConfigError error

	// Containers is the list returned by ListContainers
	Containers []ports.TUIContainerInfo
	// ContainersError is the error to return from ListContainers
	ContainersError error

	// Entries maps container files to their entries
	Entries map[string][]ports.TUIEntryInfo
	// EntriesError is the error to return from ListEntries
	EntriesError error

	// VerifyErrors maps container files to verify errors
	VerifyErrors map[string]error

	// DiffResult is returned by CompareContainers
	DiffResult *ports.DiffResult
	// DiffError is the error to return from CompareContainers
	DiffError error

	// FileDiffs maps entry names to line diffs
	FileDiffs map[string]*ports.FileDiff
	// FileDiffError is the error to return from CompareEntry
	FileDiffError error

	// Call tracking
	LoadConfigCalls     int
	ListContainersCalls int
	ListEntriesCalls    []string
	VerifyCalls         []string
	CompareCalls        [][2]string
	CompareEntryCalls   []string
}

// NewMockTUIService creates a new mock TUI service.
func NewMockTUIService() *MockTUIService {
	return &MockTUIService{
		ConfigResult: config.DefaultConfig(),
		Entries:      make(map[string][]ports.TUIEntryInfo),
		VerifyErrors: make(map[string]error),
		FileDiffs:    make(map[string]*ports.FileDiff),
	}
}

// LoadConfig loads the application configuration.
func (m *MockTUIService) LoadConfig() (*config.Config, error) {
	m.LoadConfigCalls++
	if m.ConfigError != nil {
		return nil, m.ConfigError
	}
	return m.ConfigResult, nil
}

// ListContainers returns the configured containers.
func (m *MockTUIService) ListContainers(cfg *config.Config, dir string) ([]ports.TUIContainerInfo, error) {
	m.ListContainersCalls++
	if m.ContainersError != nil {
		return nil, m.ContainersError
	}
	return m.Containers, nil
}

// ListEntries returns the entries configured for file.
func (m *MockTUIService) ListEntries(cfg *config.Config, dir, file string) ([]ports.TUIEntryInfo, error) {
	m.ListEntriesCalls = append(m.ListEntriesCalls, file)
	if m.EntriesError != nil {
		return nil, m.EntriesError
	}
	return m.Entries[file], nil
}

// VerifyContainer returns the error configured for file.
func (m *MockTUIService) VerifyContainer(cfg *config.Config, dir, file string) error {
	m.VerifyCalls = append(m.VerifyCalls, file)
	return m.VerifyErrors[file]
}

// CompareContainers returns the configured diff result.
func (m *MockTUIService) CompareContainers(cfg *config.Config, dir, file1, file2 string) (*ports.DiffResult, error) {
	m.CompareCalls = append(m.CompareCalls, [2]string{file1, file2})
	if m.DiffError != nil {
		return nil, m.DiffError
	}
	return m.DiffResult, nil
}

// CompareEntry returns the line diff configured for change.Name.
func (m *MockTUIService) CompareEntry(cfg *config.Config, dir, file1, file2 string, change ports.Change) (*ports.FileDiff, error) {
	m.CompareEntryCalls = append(m.CompareEntryCalls, change.Name)
	if m.FileDiffError != nil {
		return nil, m.FileDiffError
	}
	if d, ok := m.FileDiffs[change.Name]; ok {
		return d, nil
	}
	return &ports.FileDiff{Name: change.Name, Container1: file1, Container2: file2}, nil
}

// Compile-time check that MockTUIService implements ports.TUIService.
var _ ports.TUIService = (*MockTUIService)(nil)
