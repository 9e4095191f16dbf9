package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultLogDir               = "~/.local/share/epubshrink/logs"
	defaultJPEGQuality          = 30
	defaultPNGCompression       = 5
	defaultOutputSuffix         = "_c"
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir(),
			LogDir:   defaultLogDir,
		},
		Reduction: Reduction{
			JPEGQuality:    defaultJPEGQuality,
			PNGCompression: defaultPNGCompression,
			OutputSuffix:   defaultOutputSuffix,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Unsupported:    true,
			Completion:     true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			File:   true,
		},
	}
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "epubshrink")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/state/epubshrink"
	}
	return filepath.Join(home, ".local", "state", "epubshrink")
}
