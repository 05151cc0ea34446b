package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Compression methods for archive entries.
const (
	CompressionStore   = "store"
	CompressionDeflate = "deflate"
)

// Deletion scopes applied after a confirmed delete.
const (
	// DeleteArchived removes only the files written into a container this run.
	DeleteArchived = "archived"
	// DeleteSelection removes every direct file matching the chosen mode's
	// selection, whether or not it made it into a container.
	DeleteSelection = "selection"
)

type Config struct {
	ArchiveDir       string   `yaml:"archive_dir"`
	Compression      string   `yaml:"compression"`
	BinaryExtensions []string `yaml:"binary_extensions"`
	Ignore           []string `yaml:"ignore"`
	DeleteScope      string   `yaml:"delete_scope"`
	UniqueNames      bool     `yaml:"unique_names"`
	Manifest         bool     `yaml:"manifest"`
	PauseOnExit      bool     `yaml:"pause_on_exit"`
}

func DefaultConfig() *Config {
	return &Config{
		ArchiveDir:       "archive",
		Compression:      CompressionStore,
		BinaryExtensions: []string{"exe"},
		Ignore:           []string{},
		DeleteScope:      DeleteArchived,
		UniqueNames:      false,
		Manifest:         true,
		PauseOnExit:      true,
	}
}

func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".archivist", "config.yaml")
}

// Load reads the config file, falling back to defaults when it does not exist.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path. Keys missing from the file keep their
// default values.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks enumerated fields and the archive directory name.
func (c *Config) Validate() error {
	switch c.Compression {
	case CompressionStore, CompressionDeflate:
	default:
		return fmt.Errorf("compression must be %q or %q, got %q", CompressionStore, CompressionDeflate, c.Compression)
	}

	switch c.DeleteScope {
	case DeleteArchived, DeleteSelection:
	default:
		return fmt.Errorf("delete_scope must be %q or %q, got %q", DeleteArchived, DeleteSelection, c.DeleteScope)
	}

	name := strings.TrimSpace(c.ArchiveDir)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("archive_dir must be a plain directory name, got %q", c.ArchiveDir)
	}

	return nil
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path // Return unexpanded if home unavailable
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
