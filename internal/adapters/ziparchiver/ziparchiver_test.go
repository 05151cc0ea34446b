package ziparchiver

import (
	stdzip "archive/zip"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcdonaldj/archivist/internal/ports"
)

// writeContainer stores files (name -> content) into a new container at path
// using the adapter itself.
func writeContainer(t *testing.T, path string, method ports.Method, files map[string]string) {
	t.Helper()
	srcDir := t.TempDir()

	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}
	defer out.Close()

	w, err := New().Create(out, method)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	for name, content := range files {
		src := filepath.Join(srcDir, name)
		if err := os.WriteFile(src, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write source %s: %v", name, err)
		}
		info, err := os.Stat(src)
		if err != nil {
			t.Fatalf("Stat failed: %v", err)
		}
		f, err := os.Open(src)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		err = w.Add(name, info, f)
		f.Close()
		if err != nil {
			t.Fatalf("Add %s failed: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestCreateListReadFile(t *testing.T) {
	files := map[string]string{
		"a.txt": "alpha\n",
		"b.md":  "bravo bravo bravo\n",
	}

	tests := []struct {
		method    ports.Method
		zipMethod uint16
	}{
		{ports.Store, 0},
		{ports.Deflate, 8},
	}

	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.zip")
			writeContainer(t, path, tt.method, files)

			a := New()
			listed, err := a.List(path)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(listed) != len(files) {
				t.Fatalf("List returned %d entries, expected %d", len(listed), len(files))
			}
			for name, content := range files {
				info, ok := listed[name]
				if !ok {
					t.Errorf("entry %s missing", name)
					continue
				}
				if info.Size != int64(len(content)) {
					t.Errorf("%s size = %d, expected %d", name, info.Size, len(content))
				}
				if info.CRC32 != crc32.ChecksumIEEE([]byte(content)) {
					t.Errorf("%s CRC32 = %08x", name, info.CRC32)
				}
				if info.Method != tt.zipMethod {
					t.Errorf("%s method = %d, expected %d", name, info.Method, tt.zipMethod)
				}

				got, err := a.ReadFile(path, name)
				if err != nil {
					t.Fatalf("ReadFile %s failed: %v", name, err)
				}
				if got != content {
					t.Errorf("ReadFile %s = %q, expected %q", name, got, content)
				}
			}
		})
	}
}

func TestReadFileMissingEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.zip")
	writeContainer(t, path, ports.Store, map[string]string{"a.txt": "a"})

	_, err := New().ReadFile(path, "b.txt")
	if err == nil || !strings.Contains(err.Error(), "file not found in archive") {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestListEmptyContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.zip")
	writeContainer(t, path, ports.Store, nil)

	listed, err := New().List(path)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("entries = %v, expected none", listed)
	}
}

func TestListNotAContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.zip")
	if err := os.WriteFile(path, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := New().List(path); err == nil {
		t.Error("expected error for a non-zip file")
	}
	if _, err := New().List(filepath.Join(t.TempDir(), "missing.zip")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.zip")
	writeContainer(t, path, ports.Deflate, map[string]string{"a.txt": "alpha\n", "b.txt": "bravo\n"})

	dest := filepath.Join(dir, "out")
	if err := New().Extract(path, dest); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	for name, expected := range map[string]string{"a.txt": "alpha\n", "b.txt": "bravo\n"} {
		data, err := os.ReadFile(filepath.Join(dest, name))
		if err != nil {
			t.Fatalf("extracted %s missing: %v", name, err)
		}
		if string(data) != expected {
			t.Errorf("%s = %q, expected %q", name, data, expected)
		}
	}

	// Existing files are never overwritten
	if err := os.WriteFile(filepath.Join(dest, "a.txt"), []byte("local edit\n"), 0644); err != nil {
		t.Fatal(err)
	}
	err := New().Extract(path, dest)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("expected already-exists error, got %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dest, "a.txt"))
	if string(data) != "local edit\n" {
		t.Errorf("a.txt was overwritten: %q", data)
	}
}

func TestExtractSkipsEntriesOutsideDest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evil.zip")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := stdzip.NewWriter(f)
	for name, content := range map[string]string{"../escaped.txt": "nope\n", "ok.txt": "fine\n"} {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to add %s: %v", name, err)
		}
		fw.Write([]byte(content))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	dest := filepath.Join(dir, "out")
	if err := New().Extract(path, dest); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "escaped.txt")); !os.IsNotExist(err) {
		t.Errorf("entry escaped the destination: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "ok.txt"))
	if err != nil || string(data) != "fine\n" {
		t.Errorf("ok.txt = %q, %v", data, err)
	}
}
