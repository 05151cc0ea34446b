package manifest

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcdonaldj/archivist/internal/adapters/osfs"
	"github.com/mcdonaldj/archivist/internal/mocks"
)

func TestManifestSerializationRoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	archiveDir := filepath.Join(tempDir, "archive")

	original := &Manifest{
		Source: tempDir,
		Containers: []ContainerEntry{
			{
				File:       "full_archive_2024_1_15_10_30.zip",
				Label:      "full",
				SHA256:     "abc123def456789",
				SizeBytes:  2048,
				EntryCount: 3,
				Entries:    []string{"a.txt", "b.txt", "c.jpg"},
				CreatedAt:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			},
			{
				File:       "txt_archive_2024_1_15_10_31.zip",
				Label:      "txt",
				SHA256:     "xyz789abc123",
				SizeBytes:  1024,
				EntryCount: 2,
				Entries:    []string{"a.txt", "b.txt"},
				CreatedAt:  time.Date(2024, 1, 15, 10, 31, 0, 0, time.UTC),
			},
		},
	}

	fsys := osfs.New()
	if err := original.Save(fsys, archiveDir); err != nil {
		t.Fatalf("Failed to save manifest: %v", err)
	}

	loaded, err := Load(fsys, archiveDir)
	if err != nil {
		t.Fatalf("Failed to load manifest: %v", err)
	}

	if loaded.Source != original.Source {
		t.Errorf("Source = %q, expected %q", loaded.Source, original.Source)
	}
	if len(loaded.Containers) != len(original.Containers) {
		t.Fatalf("Containers count = %d, expected %d", len(loaded.Containers), len(original.Containers))
	}

	for i, c := range loaded.Containers {
		orig := original.Containers[i]
		if c.File != orig.File {
			t.Errorf("Containers[%d].File = %q, expected %q", i, c.File, orig.File)
		}
		if c.Label != orig.Label {
			t.Errorf("Containers[%d].Label = %q, expected %q", i, c.Label, orig.Label)
		}
		if c.SHA256 != orig.SHA256 {
			t.Errorf("Containers[%d].SHA256 = %q, expected %q", i, c.SHA256, orig.SHA256)
		}
		if c.EntryCount != orig.EntryCount {
			t.Errorf("Containers[%d].EntryCount = %d, expected %d", i, c.EntryCount, orig.EntryCount)
		}
		if len(c.Entries) != len(orig.Entries) {
			t.Errorf("Containers[%d].Entries = %v, expected %v", i, c.Entries, orig.Entries)
		}
		if !c.CreatedAt.Equal(orig.CreatedAt) {
			t.Errorf("Containers[%d].CreatedAt = %v, expected %v", i, c.CreatedAt, orig.CreatedAt)
		}
	}
}

func TestLoadMissingManifest(t *testing.T) {
	m, err := Load(mocks.NewMockFileSystem(), "/data/archive")
	if err != nil {
		t.Fatalf("Load should not fail for missing manifest: %v", err)
	}
	if m.Containers == nil || len(m.Containers) != 0 {
		t.Errorf("expected empty Containers slice, got %v", m.Containers)
	}
	if m.Latest() != nil {
		t.Error("Latest should be nil for empty manifest")
	}
}

func TestLoadMalformedManifest(t *testing.T) {
	mockFS := mocks.NewMockFileSystem()
	mockFS.Files["/data/archive/manifest.json"] = []byte("{not json")

	if _, err := Load(mockFS, "/data/archive"); err == nil {
		t.Error("Load should fail for malformed JSON")
	}
}

func TestLoadReadError(t *testing.T) {
	mockFS := mocks.NewMockFileSystem()
	mockFS.Errors["/data/archive/manifest.json"] = errors.New("permission denied")

	if _, err := Load(mockFS, "/data/archive"); err == nil {
		t.Error("Load should surface read errors other than not-exist")
	}
}

func TestAddReplacesSameFile(t *testing.T) {
	m := &Manifest{}
	m.Add(ContainerEntry{File: "txt_archive_2024_1_15_10_30.zip", SHA256: "old"})
	m.Add(ContainerEntry{File: "jpg_archive_2024_1_15_10_30.zip", SHA256: "jpg"})
	m.Add(ContainerEntry{File: "txt_archive_2024_1_15_10_30.zip", SHA256: "new"})

	if len(m.Containers) != 2 {
		t.Fatalf("expected 2 containers, got %d", len(m.Containers))
	}
	latest := m.Latest()
	if latest.File != "txt_archive_2024_1_15_10_30.zip" || latest.SHA256 != "new" {
		t.Errorf("Latest = %+v, expected the re-added txt container", latest)
	}
	if m.Containers[0].File != "jpg_archive_2024_1_15_10_30.zip" {
		t.Errorf("Containers[0] = %q, expected jpg container", m.Containers[0].File)
	}
}

func TestFind(t *testing.T) {
	m := &Manifest{Containers: []ContainerEntry{
		{File: "a.zip", Label: "a"},
		{File: "b.zip", Label: "b"},
	}}

	if got := m.Find("b.zip"); got == nil || got.Label != "b" {
		t.Errorf("Find(b.zip) = %+v", got)
	}
	if m.Find("missing.zip") != nil {
		t.Error("Find should return nil for unknown file")
	}
}

func TestSaveWithMockFileSystem(t *testing.T) {
	mockFS := mocks.NewMockFileSystem()
	m := &Manifest{Source: "/data"}
	m.Add(ContainerEntry{File: "full_archive_2024_1_15_10_30.zip", Label: "full"})

	if err := m.Save(mockFS, "/data/archive"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if len(mockFS.MkdirCalls) != 1 || mockFS.MkdirCalls[0] != "/data/archive" {
		t.Errorf("MkdirCalls = %v", mockFS.MkdirCalls)
	}
	if _, ok := mockFS.Files["/data/archive/manifest.json"]; !ok {
		t.Error("manifest should be written")
	}
}

func TestSaveMkdirError(t *testing.T) {
	mockFS := mocks.NewMockFileSystem()
	mockFS.Errors["/data/archive"] = errors.New("read-only filesystem")

	m := &Manifest{}
	if err := m.Save(mockFS, "/data/archive"); err == nil {
		t.Error("Save should fail when the folder cannot be created")
	}
}

func TestComputeSHA256(t *testing.T) {
	tempDir := t.TempDir()

	testFile := filepath.Join(tempDir, "test.txt")
	if err := os.WriteFile(testFile, []byte("hello world"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	hash, err := ComputeSHA256(osfs.New(), testFile)
	if err != nil {
		t.Fatalf("ComputeSHA256 failed: %v", err)
	}

	// Known SHA256 of "hello world"
	expected := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if hash != expected {
		t.Errorf("SHA256 = %q, expected %q", hash, expected)
	}
}

func TestComputeSHA256MissingFile(t *testing.T) {
	if _, err := ComputeSHA256(mocks.NewMockFileSystem(), "/nope.zip"); err == nil {
		t.Error("ComputeSHA256 should fail for missing file")
	}
}

func TestManifestJSONFormat(t *testing.T) {
	mockFS := mocks.NewMockFileSystem()
	m := &Manifest{
		Source: "/path/to/source",
		Containers: []ContainerEntry{
			{File: "full_archive_2024_1_15_10_30.zip", SHA256: "hash", SizeBytes: 1024, EntryCount: 1},
		},
	}

	if err := m.Save(mockFS, "/path/to/source/archive"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(mockFS.Files[Path("/path/to/source/archive")], &parsed); err != nil {
		t.Fatalf("Manifest is not valid JSON: %v", err)
	}

	if parsed["source"] != "/path/to/source" {
		t.Error("JSON source field mismatch")
	}
	containers, ok := parsed["containers"].([]interface{})
	if !ok || len(containers) != 1 {
		t.Fatalf("JSON containers field mismatch: %v", parsed["containers"])
	}
	entry := containers[0].(map[string]interface{})
	if entry["entry_count"] != float64(1) || entry["size_bytes"] != float64(1024) {
		t.Errorf("JSON entry fields mismatch: %v", entry)
	}
}
