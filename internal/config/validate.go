package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateReduction(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateReduction() error {
	r := c.Reduction
	if r.JPEGQuality < 0 || r.JPEGQuality > 100 {
		return fmt.Errorf("reduction.jpeg_quality must be between 0 and 100, got %d", r.JPEGQuality)
	}
	if r.PNGCompression < 0 || r.PNGCompression > 9 {
		return fmt.Errorf("reduction.png_compression must be between 0 and 9, got %d", r.PNGCompression)
	}
	if r.ScalePercent < 0 || r.ScalePercent > 100 {
		return fmt.Errorf("reduction.scale_percent must be between 1 and 100 (0 disables), got %d", r.ScalePercent)
	}
	if r.TargetHeight < 0 || r.TargetWidth < 0 {
		return errors.New("reduction.target_height and reduction.target_width must not be negative")
	}
	if (r.TargetHeight == 0) != (r.TargetWidth == 0) {
		return errors.New("reduction.target_height and reduction.target_width must be set together")
	}
	if strings.ContainsAny(r.OutputSuffix, `/\`) {
		return fmt.Errorf("reduction.output_suffix must not contain path separators, got %q", r.OutputSuffix)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
