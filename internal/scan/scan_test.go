package scan

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mcdonaldj/archivist/internal/adapters/osfs"
	"github.com/mcdonaldj/archivist/internal/mocks"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("content of "+name), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

func TestClassifyCountsAndExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt", "b.txt", "c.jpg", "README", "notes.md")
	if err := os.MkdirAll(filepath.Join(dir, "sub.dir"), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}
	writeFiles(t, filepath.Join(dir, "sub.dir"), "nested.go")

	inv, err := Classify(osfs.New(), dir, Options{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if inv.FileCount() != 5 {
		t.Errorf("FileCount = %d, expected 5 (directories excluded)", inv.FileCount())
	}

	// os.ReadDir sorts by name, so first appearance follows name order
	expected := []string{"txt", "jpg", "md"}
	if !reflect.DeepEqual(inv.Extensions, expected) {
		t.Errorf("Extensions = %v, expected %v", inv.Extensions, expected)
	}

	if inv.Counts["txt"] != 2 || inv.Counts["jpg"] != 1 || inv.Counts["md"] != 1 {
		t.Errorf("Counts = %v", inv.Counts)
	}
	if inv.HasExtension("dir") {
		t.Error("subdirectory name must not contribute an extension")
	}
	if inv.HasExtension("go") {
		t.Error("classification must not recurse into subdirectories")
	}
}

func TestClassifyRemovesBinaryExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "tool.exe", "data.csv", "setup.exe")

	inv, err := Classify(osfs.New(), dir, Options{BinaryExtensions: []string{"exe"}})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if !reflect.DeepEqual(inv.Extensions, []string{"csv"}) {
		t.Errorf("Extensions = %v, expected [csv]", inv.Extensions)
	}
	if !reflect.DeepEqual(inv.BinaryExcluded, []string{"exe"}) {
		t.Errorf("BinaryExcluded = %v, expected [exe]", inv.BinaryExcluded)
	}
	// Binary files remain files; only the extension set drops them
	if inv.FileCount() != 3 {
		t.Errorf("FileCount = %d, expected 3", inv.FileCount())
	}
	if inv.Counts["exe"] != 2 {
		t.Errorf("Counts[exe] = %d, expected 2", inv.Counts["exe"])
	}
}

func TestClassifyExecutableExtensionIsBinary(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "archivist.bin", "payload.bin", "doc.txt")

	inv, err := Classify(osfs.New(), dir, Options{ExecutableName: "archivist.bin"})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if inv.HasExtension("bin") {
		t.Error("executable's own extension should be excluded from the extension set")
	}
	if !inv.Ignore.Match("archivist.bin") {
		t.Error("executable should be in the ignore list")
	}
	// A same-extension file is excluded from classification but not ignored
	if inv.Ignore.Match("payload.bin") {
		t.Error("payload.bin should not be ignored")
	}
}

func TestClassifyIgnoreList(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, ".env", ".hidden.txt", "keep.txt", "scratch.tmp")
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatalf("Failed to create .git: %v", err)
	}

	inv, err := Classify(osfs.New(), dir, Options{
		ExecutableName: "archivist",
		IgnorePatterns: []string{"*.tmp", "", "# comment"},
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	expected := []string{"archivist", ".env", ".git", ".hidden.txt", "scratch.tmp"}
	if !reflect.DeepEqual(inv.Ignore.Names(), expected) {
		t.Errorf("Ignore.Names() = %v, expected %v", inv.Ignore.Names(), expected)
	}
	if inv.Ignore.Match("keep.txt") {
		t.Error("keep.txt should not be ignored")
	}
	// .hidden.txt still contributes its extension to the set
	if !inv.HasExtension("txt") {
		t.Error("txt should be in the extension set")
	}
	if inv.HasExtension("env") {
		t.Error(".env has no extension")
	}
}

func TestClassifyReadError(t *testing.T) {
	mockFS := mocks.NewMockFileSystem()
	mockFS.Errors["/locked"] = errors.New("permission denied")

	_, err := Classify(mockFS, "/locked", Options{})
	if err == nil {
		t.Fatal("Classify should fail for unreadable directory")
	}
	if !errors.Is(err, mockFS.Errors["/locked"]) {
		t.Errorf("error should wrap the underlying cause, got: %v", err)
	}
}

func TestClassifyWithMockFileSystem(t *testing.T) {
	mockFS := mocks.NewMockFileSystem()
	mockFS.AddFile("/data", "b.log", []byte("b"))
	mockFS.AddFile("/data", "a.log", []byte("a"))
	mockFS.AddFile("/data", "z.csv", []byte("z"))
	mockFS.AddDir("/data", "archive")

	inv, err := Classify(mockFS, "/data", Options{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if inv.FileCount() != 3 {
		t.Errorf("FileCount = %d, expected 3", inv.FileCount())
	}
	if got := len(inv.FilesWithExtension("log")); got != 2 {
		t.Errorf("FilesWithExtension(log) = %d, expected 2", got)
	}
	if inv.Files[0].Path != filepath.Join("/data", "a.log") {
		t.Errorf("Files[0].Path = %q", inv.Files[0].Path)
	}
}

func TestClassifyFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := t.TempDir()
	writeFiles(t, target, "real.txt")

	if err := os.Symlink(filepath.Join(target, "real.txt"), filepath.Join(dir, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(target, filepath.Join(dir, "linkdir.d")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(target, "missing"), filepath.Join(dir, "broken.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	inv, err := Classify(osfs.New(), dir, Options{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if inv.FileCount() != 1 || inv.Files[0].Name != "link.txt" {
		t.Errorf("Files = %v, expected only link.txt", inv.Files)
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"a.txt", "txt"},
		{"archive.tar.gz", "gz"},
		{"README", ""},
		{".bashrc", ""},
		{".config.json", "json"},
		{"trailing.", ""},
		{"UPPER.TXT", "TXT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extension(tt.name); got != tt.expected {
				t.Errorf("Extension(%q) = %q, expected %q", tt.name, got, tt.expected)
			}
		})
	}
}

func TestIgnoreListNil(t *testing.T) {
	var l *IgnoreList
	if l.Match("anything") {
		t.Error("nil IgnoreList should match nothing")
	}
	if l.Names() != nil {
		t.Error("nil IgnoreList should have no names")
	}
}

func TestIgnoreListBadPattern(t *testing.T) {
	l := NewIgnoreList("", nil, []string{"[", "*.bak"})
	if !l.Match("old.bak") {
		t.Error("valid pattern should still match after a bad one")
	}
	if l.Match("file.txt") {
		t.Error("file.txt should not match")
	}
}
