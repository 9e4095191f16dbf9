// Package main hosts the epubshrink CLI entrypoint and command graph.
//
// The root command takes the source archive and either runs a batch rewrite
// or, with --test, an interactive calibration session. Subcommands cover
// configuration scaffolding, run history, the log file viewer, and a
// notification self-test.
// Config resolution, logger construction, and the history store are wired
// here; the reduction work lives in internal/archive, internal/imagery and
// internal/calibrate.
package main
