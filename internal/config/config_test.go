package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"epubshrink/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_STATE_HOME", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "state", "epubshrink")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	wantLogs := filepath.Join(tempHome, ".local", "share", "epubshrink", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Reduction.JPEGQuality != 30 {
		t.Fatalf("expected jpeg quality 30, got %d", cfg.Reduction.JPEGQuality)
	}
	if cfg.Reduction.PNGCompression != 5 {
		t.Fatalf("expected png compression 5, got %d", cfg.Reduction.PNGCompression)
	}
	if cfg.Reduction.ScalePercent != 0 {
		t.Fatalf("expected scaling disabled by default, got %d", cfg.Reduction.ScalePercent)
	}
	if cfg.Reduction.OutputSuffix != "_c" {
		t.Fatalf("unexpected output suffix %q", cfg.Reduction.OutputSuffix)
	}
	if cfg.LogPath() != filepath.Join(wantLogs, "epubshrink.log") {
		t.Fatalf("unexpected log path %q", cfg.LogPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "epubshrink.toml")

	type payload struct {
		Reduction struct {
			JPEGQuality  int `toml:"jpeg_quality"`
			ScalePercent int `toml:"scale_percent"`
			TargetHeight int `toml:"target_height"`
			TargetWidth  int `toml:"target_width"`
		} `toml:"reduction"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Reduction.JPEGQuality = 55
	custom.Reduction.ScalePercent = 80
	custom.Reduction.TargetHeight = 1334
	custom.Reduction.TargetWidth = 750
	custom.Logging.Format = " JSON "
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Reduction.JPEGQuality != 55 {
		t.Fatalf("expected jpeg quality 55, got %d", cfg.Reduction.JPEGQuality)
	}
	if cfg.Reduction.PNGCompression != 5 {
		t.Fatalf("expected png compression to keep default, got %d", cfg.Reduction.PNGCompression)
	}
	if cfg.Reduction.ScalePercent != 80 {
		t.Fatalf("expected scale 80, got %d", cfg.Reduction.ScalePercent)
	}
	if cfg.Reduction.TargetHeight != 1334 || cfg.Reduction.TargetWidth != 750 {
		t.Fatalf("unexpected target resolution %dx%d", cfg.Reduction.TargetHeight, cfg.Reduction.TargetWidth)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized log format json, got %q", cfg.Logging.Format)
	}
}

func TestLoadMissingCustomPathUsesDefaults(t *testing.T) {
	target := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists to be false")
	}
	if resolved != target {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Reduction.JPEGQuality != config.Default().Reduction.JPEGQuality {
		t.Fatalf("expected default jpeg quality, got %d", cfg.Reduction.JPEGQuality)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "epubshrink.toml")
	if err := os.WriteFile(configPath, []byte("[reduction]\njpeg_qual = 10\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"defaults", func(*config.Config) {}, ""},
		{"jpeg too high", func(c *config.Config) { c.Reduction.JPEGQuality = 101 }, "jpeg_quality"},
		{"jpeg negative", func(c *config.Config) { c.Reduction.JPEGQuality = -1 }, "jpeg_quality"},
		{"png too high", func(c *config.Config) { c.Reduction.PNGCompression = 10 }, "png_compression"},
		{"scale too high", func(c *config.Config) { c.Reduction.ScalePercent = 150 }, "scale_percent"},
		{"half resolution", func(c *config.Config) { c.Reduction.TargetHeight = 100 }, "set together"},
		{"suffix separator", func(c *config.Config) { c.Reduction.OutputSuffix = "a/b" }, "output_suffix"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Reduction.JPEGQuality != 30 || cfg.Reduction.PNGCompression != 5 {
		t.Fatalf("unexpected sample reduction values: %+v", cfg.Reduction)
	}
}

func TestEncodeRoundTripsThroughLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(dir, "state")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Reduction.ScalePercent = 60
	cfg.Reduction.OutputSuffix = "_small"

	var buf strings.Builder
	if err := cfg.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), "[reduction]") {
		t.Fatalf("expected reduction table in %q", buf.String())
	}

	path := filepath.Join(dir, "effective.toml")
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load encoded config: %v", err)
	}
	if loaded.Reduction.ScalePercent != 60 || loaded.Reduction.OutputSuffix != "_small" {
		t.Fatalf("unexpected reduction after round trip: %+v", loaded.Reduction)
	}
	if loaded.Paths.StateDir != cfg.Paths.StateDir {
		t.Fatalf("state dir %q, want %q", loaded.Paths.StateDir, cfg.Paths.StateDir)
	}
}
