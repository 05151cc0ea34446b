// Package ziparchiver provides an archiver adapter built on github.com/mholt/archiver/v3.
package ziparchiver

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"

	"github.com/klauspost/compress/zip"
	"github.com/mholt/archiver/v3"

	"github.com/mcdonaldj/archivist/internal/ports"
)

// MaxReadSize bounds how much of a single entry ReadFile will load into memory.
const MaxReadSize = 64 * 1024 * 1024 // 64MB

// ZipArchiver implements ports.Archiver using archiver.Zip.
type ZipArchiver struct{}

// New creates a new ZipArchiver adapter.
func New() *ZipArchiver {
	return &ZipArchiver{}
}

// newZip returns an archiver.Zip configured for flat, non-selective containers.
func newZip(method ports.Method) *archiver.Zip {
	z := archiver.NewZip()
	z.SelectiveCompression = false
	z.ImplicitTopLevelFolder = false
	z.OverwriteExisting = false
	z.MkdirAll = true
	switch method {
	case ports.Deflate:
		z.FileMethod = archiver.Deflate
	default:
		z.FileMethod = archiver.Store
	}
	return z
}

// Create starts a new container that streams to w.
func (a *ZipArchiver) Create(w io.Writer, method ports.Method) (ports.ContainerWriter, error) {
	z := newZip(method)
	if err := z.Create(w); err != nil {
		return nil, fmt.Errorf("starting zip container: %w", err)
	}
	return &containerWriter{zip: z}, nil
}

type containerWriter struct {
	zip *archiver.Zip
}

// Add writes one flat entry. The name is used verbatim; no directory
// components are added.
func (c *containerWriter) Add(name string, info fs.FileInfo, r io.Reader) error {
	if info == nil {
		return fmt.Errorf("%s: missing file info", name)
	}
	err := c.zip.Write(archiver.File{
		FileInfo: archiver.FileInfo{
			FileInfo:   info,
			CustomName: name,
		},
		ReadCloser: io.NopCloser(r),
	})
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	return nil
}

func (c *containerWriter) Close() error {
	return c.zip.Close()
}

// Extract unpacks zipPath into destDir. An entry that already exists in
// destDir stops extraction with an error. Entries that would land outside
// destDir are logged and skipped by archiver.
func (a *ZipArchiver) Extract(zipPath, destDir string) error {
	z := newZip(ports.Store)
	if err := z.Unarchive(zipPath, destDir); err != nil {
		return fmt.Errorf("extracting %s: %w", zipPath, err)
	}
	return nil
}

// List returns a map of entry names to their info from the archive.
func (a *ZipArchiver) List(zipPath string) (map[string]ports.FileInfo, error) {
	files := make(map[string]ports.FileInfo)
	err := newZip(ports.Store).Walk(zipPath, func(f archiver.File) error {
		if f.IsDir() {
			return nil
		}
		hdr, ok := header(f)
		if !ok {
			return fmt.Errorf("%s: not a zip entry", f.Name())
		}

		// Safe conversion: check for overflow before uint64 -> int64
		size := int64(0)
		if hdr.UncompressedSize64 <= math.MaxInt64 {
			size = int64(hdr.UncompressedSize64)
		}
		files[hdr.Name] = ports.FileInfo{
			Size:   size,
			CRC32:  hdr.CRC32,
			Method: hdr.Method,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ReadFile reads the contents of one entry from inside a zip archive.
func (a *ZipArchiver) ReadFile(zipPath, entryName string) (string, error) {
	var (
		content string
		found   bool
	)
	err := newZip(ports.Store).Walk(zipPath, func(f archiver.File) error {
		hdr, ok := header(f)
		if !ok || hdr.Name != entryName {
			return nil
		}
		if hdr.UncompressedSize64 > MaxReadSize {
			return fmt.Errorf("entry too large: %d bytes exceeds limit of %d bytes", hdr.UncompressedSize64, MaxReadSize)
		}
		data, err := io.ReadAll(io.LimitReader(f, MaxReadSize+1))
		if err != nil {
			return err
		}
		content = string(data)
		found = true
		return archiver.ErrStopWalk
	})
	if err != nil && !errors.Is(err, archiver.ErrStopWalk) {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("file not found in archive: %s", entryName)
	}
	return content, nil
}

// header extracts the zip header that archiver attaches to walked files.
// archiver reads containers with klauspost/compress/zip, so that is the
// header type it hands back.
func header(f archiver.File) (zip.FileHeader, bool) {
	switch h := f.Header.(type) {
	case zip.FileHeader:
		return h, true
	case *zip.FileHeader:
		return *h, true
	}
	return zip.FileHeader{}, false
}

// Compile-time check that ZipArchiver implements ports.Archiver.
var _ ports.Archiver = (*ZipArchiver)(nil)
