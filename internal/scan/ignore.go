package scan

import (
	"path/filepath"
	"strings"
)

// IgnoreList holds the names that are never archived or deleted: the running
// executable, every dotfile, and anything matching a configured pattern.
type IgnoreList struct {
	names    []string
	set      map[string]bool
	patterns []string
}

// NewIgnoreList builds the list from the executable name and the directory's
// entry names. Blank patterns and patterns starting with '#' are skipped.
func NewIgnoreList(executable string, entries []string, patterns []string) *IgnoreList {
	l := &IgnoreList{set: make(map[string]bool)}

	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		l.patterns = append(l.patterns, raw)
	}

	if executable != "" {
		l.add(executable)
	}
	for _, name := range entries {
		if l.Match(name) {
			l.add(name)
		}
	}
	return l
}

func (l *IgnoreList) add(name string) {
	if l.set[name] {
		return
	}
	l.set[name] = true
	l.names = append(l.names, name)
}

// Match reports whether name must be left alone.
func (l *IgnoreList) Match(name string) bool {
	if l == nil {
		return false
	}
	if l.set[name] || strings.HasPrefix(name, ".") {
		return true
	}
	for _, p := range l.patterns {
		matched, err := filepath.Match(p, name)
		if err != nil {
			// Bad pattern: skip rather than fail the scan.
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// Names returns the ignored names in the order they were recorded,
// executable first.
func (l *IgnoreList) Names() []string {
	if l == nil {
		return nil
	}
	return append([]string{}, l.names...)
}
