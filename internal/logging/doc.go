// Package logging assembles structured slog loggers and formatting helpers used
// across epubshrink.
//
// It owns the console and JSON handlers, mirrors output to an append-only log
// file, and exposes helpers for component loggers and run identifiers so every
// line from one invocation can be correlated. A no-op logger is provided for
// tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the tool.
package logging
