package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"epubshrink/internal/config"
	"epubshrink/internal/history"
	"epubshrink/internal/imagery"
)

// resolveParams starts from the [reduction] config section and applies any
// flag the operator set explicitly.
func resolveParams(cmd *cobra.Command, cfg *config.Config, flags reduceFlags) (imagery.Params, error) {
	params := imagery.Params{
		JPEGQuality:    cfg.Reduction.JPEGQuality,
		PNGCompression: cfg.Reduction.PNGCompression,
		ScalePercent:   cfg.Reduction.ScalePercent,
		Target: imagery.Resolution{
			Height: cfg.Reduction.TargetHeight,
			Width:  cfg.Reduction.TargetWidth,
		},
	}

	changed := cmd.Flags().Changed
	if changed("jpeg-qual") {
		params.JPEGQuality = flags.jpegQuality
	}
	if changed("png-comp") {
		params.PNGCompression = flags.pngCompression
	}
	if changed("scale") {
		if flags.scale < 1 || flags.scale > 100 {
			return params, fmt.Errorf("--scale must be between 1 and 100, got %d", flags.scale)
		}
		params.ScalePercent = flags.scale
	}
	if changed("res") {
		if len(flags.res) != 2 {
			return params, fmt.Errorf("--res expects HEIGHT,WIDTH, got %d values", len(flags.res))
		}
		params.Target = imagery.Resolution{Height: flags.res[0], Width: flags.res[1]}
		if params.Target.Height <= 0 || params.Target.Width <= 0 {
			return params, errors.New("--res values must be positive")
		}
	}

	if params.JPEGQuality < 0 || params.JPEGQuality > 100 {
		return params, fmt.Errorf("--jpeg-qual must be between 0 and 100, got %d", params.JPEGQuality)
	}
	if params.PNGCompression < 0 || params.PNGCompression > 9 {
		return params, fmt.Errorf("--png-comp must be between 0 and 9, got %d", params.PNGCompression)
	}
	if params.ScalePercent < 0 || params.ScalePercent > 100 {
		return params, fmt.Errorf("--scale must be between 1 and 100, got %d", params.ScalePercent)
	}
	return params, nil
}

// applyCalibration overrides scale and quality with the values last accepted
// for source.
func applyCalibration(ctx context.Context, store *history.Store, source string, params imagery.Params) (imagery.Params, error) {
	cal, err := store.LoadCalibration(ctx, source)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return params, fmt.Errorf("no calibration stored for %s; run with --test first", source)
		}
		return params, err
	}
	params.ScalePercent = cal.ScalePercent
	params.JPEGQuality = cal.QualityPercent
	return params, nil
}
