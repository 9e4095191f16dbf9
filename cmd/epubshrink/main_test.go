package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"epubshrink/internal/archive"
	"epubshrink/internal/history"
	"epubshrink/internal/testsupport"
)

func writeBook(t *testing.T, path string) []byte {
	t.Helper()
	opf := bytes.Repeat([]byte("<item/>"), 200)
	testsupport.WriteArchive(t, path,
		testsupport.Stored("mimetype", []byte("application/epub+zip")),
		testsupport.Deflated("OEBPS/content.opf", opf),
		testsupport.Deflated("OEBPS/Images/cover.jpg", testsupport.JPEG(t, testsupport.Gradient(400, 600), 95)),
		testsupport.Deflated("OEBPS/Images/icon.bmp", []byte("BM not really")),
	)
	return opf
}

func TestRootWithoutArgsPrintsHelp(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	requireContains(t, out, "epubshrink PATH")
	requireContains(t, out, "--jpeg-qual")
}

func TestRewriteWritesDerivedDestination(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.booksDir, "my.novel.epub")
	opf := writeBook(t, source)

	out, _, err := runCLI(t, []string{source, "--scale", "50", "--jpeg-qual", "30"}, env.configPath)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	requireContains(t, out, "Reduction:")
	requireContains(t, out, "OEBPS/Images/cover.jpg")
	requireContains(t, out, "unsupported")
	requireContains(t, out, "1 reduced")

	destination := filepath.Join(env.booksDir, "my.novel_c.epub")
	entries := testsupport.ReadArchive(t, destination)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if !bytes.Equal(entries[1].Data, opf) {
		t.Fatal("content.opf changed")
	}
	if got := testsupport.DecodeSize(t, entries[2].Data); got != image.Pt(200, 300) {
		t.Fatalf("cover resized to %v, want 200x300", got)
	}
	if string(entries[3].Data) != "BM not really" {
		t.Fatal("icon.bmp changed")
	}
}

func TestRewriteOutputFlagAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.booksDir, "book.epub")
	writeBook(t, source)
	destination := filepath.Join(env.baseDir, "small.epub")

	if _, _, err := runCLI(t, []string{source, "--output", destination, "--res", "300,300"}, env.configPath); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	entries := testsupport.ReadArchive(t, destination)
	if got := testsupport.DecodeSize(t, entries[2].Data); got != image.Pt(200, 300) {
		t.Fatalf("cover resized to %v, want 200x300", got)
	}

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "book.epub")
	requireContains(t, out, "1/2")
}

func TestHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No rewrites recorded")
}

func TestRewriteMissingSource(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{filepath.Join(env.booksDir, "missing.epub")}, env.configPath)
	if !errors.Is(err, archive.ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound, got %v", err)
	}
}

func TestRewriteRejectsBadFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.booksDir, "book.epub")
	writeBook(t, source)

	cases := [][]string{
		{source, "--res", "300"},
		{source, "--res", "0,300"},
		{source, "--jpeg-qual", "101"},
		{source, "--png-comp", "10"},
		{source, "--scale", "150"},
		{source, "--scale", "0"},
		{source, "--scale", "-5"},
	}
	for _, args := range cases {
		if _, _, err := runCLI(t, args, env.configPath); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
	if _, err := os.Stat(filepath.Join(env.booksDir, "book_c.epub")); !os.IsNotExist(err) {
		t.Fatalf("no destination expected after flag errors: %v", err)
	}
}

func TestUseCalibration(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.booksDir, "book.epub")
	writeBook(t, source)

	_, _, err := runCLI(t, []string{source, "--use-calibration"}, env.configPath)
	if err == nil {
		t.Fatal("expected error without stored calibration")
	}
	requireContains(t, err.Error(), "no calibration stored")

	store, err := history.Open(env.cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	if err := store.SaveCalibration(context.Background(), history.Calibration{SourcePath: source, ScalePercent: 25, QualityPercent: 40}); err != nil {
		t.Fatalf("SaveCalibration: %v", err)
	}
	store.Close()

	if _, _, err := runCLI(t, []string{source, "--use-calibration"}, env.configPath); err != nil {
		t.Fatalf("rewrite with calibration: %v", err)
	}
	entries := testsupport.ReadArchive(t, filepath.Join(env.booksDir, "book_c.epub"))
	if got := testsupport.DecodeSize(t, entries[2].Data); got != image.Pt(100, 150) {
		t.Fatalf("cover resized to %v, want 100x150", got)
	}
}

func TestCalibrationRequiresTerminal(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.booksDir, "book.epub")
	writeBook(t, source)

	_, _, err := runCLI(t, []string{source, "--test"}, env.configPath)
	if !errors.Is(err, errNotInteractive) {
		t.Fatalf("expected errNotInteractive, got %v", err)
	}

	_, _, err = runCLI(t, []string{filepath.Join(env.booksDir, "missing.epub"), "--test"}, env.configPath)
	if !errors.Is(err, archive.ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound before the terminal check, got %v", err)
	}
}

func TestTestNotify(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications disabled")

	var titles []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		titles = append(titles, r.Header.Get("Title"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	env = setupCLITestEnv(t, testsupport.WithNtfyTopic(server.URL))
	out, _, err = runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if len(titles) != 1 || titles[0] != "epubshrink - Test" {
		t.Fatalf("unexpected requests: %v", titles)
	}
}

func TestLogsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"logs"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "File logging disabled")

	env = setupCLITestEnv(t, testsupport.WithLogFile())
	source := filepath.Join(env.booksDir, "book.epub")
	writeBook(t, source)
	if _, _, err := runCLI(t, []string{source}, env.configPath); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	store, err := history.Open(env.cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	runs, err := store.ListRuns(context.Background(), 1)
	store.Close()
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns: %v (%d runs)", err, len(runs))
	}

	out, _, err = runCLI(t, []string{"logs", "--run", runs[0].RunID[:8], "--lines", "-1"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "unsupported image extension")
	if n := strings.Count(out, "OEBPS/Images/icon.bmp"); n != 1 {
		t.Fatalf("expected the unsupported entry logged once, got %d lines:\n%s", n, out)
	}

	out, _, err = runCLI(t, []string{"logs", "--run", "no-such-run"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "" {
		t.Fatalf("expected no lines for unknown run, got %q", out)
	}
}
