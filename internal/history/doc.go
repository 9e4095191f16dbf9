// Package history records completed rewrites and accepted calibrations in a
// SQLite database under the configured state directory.
//
// The schema is managed by embedded, ordered migrations applied in a single
// transaction on Open. Calibrations are keyed by the absolute source path so a
// later batch run can reuse the scale and quality an operator accepted.
package history
