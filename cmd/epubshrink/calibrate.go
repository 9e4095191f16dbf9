package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"epubshrink/internal/archive"
	"epubshrink/internal/calibrate"
	"epubshrink/internal/history"
	"epubshrink/internal/imagery"
	"epubshrink/internal/preflight"
)

var errNotInteractive = errors.New("--test requires an interactive terminal on stdin and stdout")

func runCalibration(cmd *cobra.Command, cmdCtx *commandContext, source string, flags reduceFlags) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	params, err := resolveParams(cmd, cfg, flags)
	if err != nil {
		return err
	}
	if err := preflight.FirstFailure([]preflight.Result{preflight.CheckSource("Source archive", source)}); err != nil {
		return err
	}

	in, inOK := cmd.InOrStdin().(*os.File)
	out, outOK := cmd.OutOrStdout().(*os.File)
	if !inOK || !outOK || !isTerminal(in) || !isTerminal(out) {
		return errNotInteractive
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The terminal belongs to the preview while the session runs.
	ctx, logger, err := cmdCtx.runLogger(ctx, true)
	if err != nil {
		return err
	}

	images, err := archive.OpenImages(source)
	if err != nil {
		return err
	}
	defer images.Close()
	if images.Len() == 0 {
		fmt.Fprintf(out, "No JPEG or PNG images under %s in %s\n", imagery.ImagesPrefix, source)
		return nil
	}

	term, err := calibrate.OpenTerminal(in, out)
	if err != nil {
		return err
	}
	session := calibrate.NewSession(imagery.NewReducer(logger), images, logger)
	result, runErr := session.Run(ctx, term, term)
	if err := term.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("restore terminal: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	if !result.Accepted {
		fmt.Fprintln(out, "Calibration cancelled")
		return nil
	}
	fmt.Fprintf(out, "Accepted scale %d%%, quality %d%%\n", result.Scale, result.Quality)

	if err := cmdCtx.withHistory(func(store *history.Store) error {
		return store.SaveCalibration(ctx, history.Calibration{
			SourcePath:     source,
			ScalePercent:   result.Scale,
			QualityPercent: result.Quality,
		})
	}); err != nil {
		return fmt.Errorf("save calibration: %w", err)
	}

	if !flags.apply {
		fmt.Fprintln(out, "Run again with --use-calibration to apply these values")
		return nil
	}
	params.ScalePercent = result.Scale
	params.JPEGQuality = result.Quality
	return rewriteArchive(ctx, cmd, cmdCtx, cfg, source, destinationFor(cfg, source, flags.output), params)
}
