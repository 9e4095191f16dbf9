package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"epubshrink/internal/archive"
	"epubshrink/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSource(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "book.epub")
	testsupport.WriteArchive(t, valid, testsupport.Stored("mimetype", []byte("application/epub+zip")))
	empty := filepath.Join(dir, "empty.epub")
	testsupport.WriteFile(t, empty, 0)
	junk := filepath.Join(dir, "junk.epub")
	testsupport.WriteFile(t, junk, 64)

	tests := []struct {
		name    string
		path    string
		passed  bool
		wantErr error
	}{
		{"valid archive", valid, true, nil},
		{"missing", filepath.Join(dir, "missing.epub"), false, archive.ErrInputNotFound},
		{"empty", empty, false, archive.ErrZeroSizeInput},
		{"not zip", junk, false, nil},
		{"directory", dir, false, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := CheckSource("source", tc.path)
			if result.Passed != tc.passed {
				t.Fatalf("passed = %v, want %v (%s)", result.Passed, tc.passed, result.Detail)
			}
			if tc.wantErr != nil && !errors.Is(result.Err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, result.Err)
			}
		})
	}
}

func TestCheckNtfyTopic(t *testing.T) {
	if r := CheckNtfyTopic("https://ntfy.sh/books"); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	for _, topic := range []string{"ntfy.sh/books", "ftp://ntfy.sh/books", "https://"} {
		if r := CheckNtfyTopic(topic); r.Passed {
			t.Fatalf("expected %q to fail", topic)
		}
	}
}

func TestRunAllStopsOnMissingSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	source := filepath.Join(dir, "missing.epub")

	results := RunAll(cfg, source, filepath.Join(dir, "missing_c.epub"))
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	err := FirstFailure(results)
	if !errors.Is(err, archive.ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound, got %v", err)
	}
}

func TestRunAllPassesForValidSetup(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic("https://ntfy.example/books"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	source := filepath.Join(dir, "book.epub")
	testsupport.WriteArchive(t, source, testsupport.Stored("mimetype", []byte("application/epub+zip")))

	results := RunAll(cfg, source, filepath.Join(dir, "book_c.epub"))
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if err := FirstFailure(results); err != nil {
		t.Fatalf("expected all checks to pass, got %v", err)
	}
}
