package preflight

import (
	"epubshrink/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Err carries a sentinel for failures callers need to distinguish.
	Err error
}

// RunAll executes the checks a rewrite needs before touching any file: the
// source archive, the destination directory, the state directory and, when
// configured, the ntfy topic.
func RunAll(cfg *config.Config, source, destination string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckSource("Source archive", source),
		CheckDirectoryAccess("Output directory", parentDir(destination)),
	}

	if cfg.Paths.StateDir != "" {
		results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	}

	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfyTopic(cfg.Notifications.NtfyTopic))
	}

	return results
}

// FirstFailure returns an error describing the first failed result, or nil.
func FirstFailure(results []Result) error {
	for _, r := range results {
		if r.Passed {
			continue
		}
		return r.error()
	}
	return nil
}
