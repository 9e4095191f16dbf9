// Package config loads, normalizes, and validates epubshrink configuration data.
//
// It supplies repository defaults (JPEG quality 30, PNG level 5, no scaling),
// expands user paths including tilde shortcuts, and reads TOML files from the
// --config flag, ~/.config/epubshrink/config.toml, or ./epubshrink.toml. The
// Config type centralizes every knob the CLI needs so batch and calibration
// runs see the same sanitized values.
//
// Command-line flags override the reduction defaults loaded here; keep range
// checks in Validate so a bad file fails before any archive is opened.
package config
