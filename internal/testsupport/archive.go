package testsupport

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

// Entry is one file in a fixture archive.
type Entry struct {
	Name   string
	Data   []byte
	Method uint16
}

// Stored returns an uncompressed entry, as used for the EPUB mimetype file.
func Stored(name string, data []byte) Entry {
	return Entry{Name: name, Data: data, Method: zip.Store}
}

// Deflated returns a deflate-compressed entry.
func Deflated(name string, data []byte) Entry {
	return Entry{Name: name, Data: data, Method: zip.Deflate}
}

// WriteArchive writes entries to path in order.
func WriteArchive(t testing.TB, path string, entries ...Entry) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, entry := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: entry.Name, Method: entry.Method})
		if err != nil {
			t.Fatalf("create entry %s: %v", entry.Name, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			t.Fatalf("write entry %s: %v", entry.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
}

// ReadArchive returns the entries of path in archive order.
func ReadArchive(t testing.TB, path string) []Entry {
	t.Helper()

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive %s: %v", path, err)
	}
	defer r.Close()

	entries := make([]Entry, 0, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		entries = append(entries, Entry{Name: f.Name, Data: data, Method: f.Method})
	}
	return entries
}

// EntryNames returns the names of entries in order.
func EntryNames(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names
}
