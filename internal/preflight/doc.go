// Package preflight provides readiness checks for the files and directories
// a rewrite depends on.
//
// The CLI calls RunAll before a batch rewrite or calibration session and stops
// on the first failure, so a missing source or an unwritable output directory
// is reported before any temp file is created. Checks never modify the
// filesystem.
package preflight
