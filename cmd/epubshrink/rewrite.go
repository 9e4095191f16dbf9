package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"epubshrink/internal/archive"
	"epubshrink/internal/config"
	"epubshrink/internal/history"
	"epubshrink/internal/imagery"
	"epubshrink/internal/logging"
	"epubshrink/internal/notifications"
	"epubshrink/internal/preflight"
)

func runRewrite(cmd *cobra.Command, cmdCtx *commandContext, source string, flags reduceFlags) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	params, err := resolveParams(cmd, cfg, flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flags.useCalibration {
		err := cmdCtx.withHistory(func(store *history.Store) error {
			params, err = applyCalibration(ctx, store, source, params)
			return err
		})
		if err != nil {
			return err
		}
	}

	return rewriteArchive(ctx, cmd, cmdCtx, cfg, source, destinationFor(cfg, source, flags.output), params)
}

func destinationFor(cfg *config.Config, source, output string) string {
	if strings.TrimSpace(output) != "" {
		return output
	}
	return archive.DerivePath(source, cfg.Reduction.OutputSuffix)
}

// rewriteArchive runs preflight, the rewrite itself, and the bookkeeping that
// follows: summary output, history, and the completion notification.
func rewriteArchive(ctx context.Context, cmd *cobra.Command, cmdCtx *commandContext, cfg *config.Config, source, destination string, params imagery.Params) error {
	if err := preflight.FirstFailure(preflight.RunAll(cfg, source, destination)); err != nil {
		return err
	}

	ctx, logger, err := cmdCtx.runLogger(ctx, false)
	if err != nil {
		return err
	}
	notifier := cmdCtx.notifier()

	progress := newProgress(cmd.ErrOrStderr())
	rewriter := archive.NewRewriter(imagery.NewReducer(logger), notifier, logger, archive.Options{
		LockDir:  cfg.LockDir(),
		Progress: progress.update,
	})

	report, err := rewriter.Rewrite(ctx, source, destination, params)
	progress.finish()
	if err != nil {
		logger.Error("rewrite failed", logging.String("source", source), logging.Error(err))
		publish(ctx, logger, notifier, notifications.EventRewriteFailed, notifications.Payload{
			"source": filepath.Base(source),
			"error":  err.Error(),
		})
		return err
	}

	out := cmd.OutOrStdout()
	printReport(out, report)

	runID, _ := logging.RunIDFromContext(ctx)
	if err := cmdCtx.withHistory(func(store *history.Store) error {
		return store.RecordRun(ctx, historyRun(runID, report))
	}); err != nil {
		logging.Warn(logger, "failed to record run history", "history_write_failed", logging.Error(err))
	}

	publish(ctx, logger, notifier, notifications.EventRewriteCompleted, notifications.Payload{
		"destination": filepath.Base(destination),
		"summary":     reportSummary(report),
	})
	return nil
}

func publish(ctx context.Context, logger *slog.Logger, notifier notifications.Service, event notifications.Event, payload notifications.Payload) {
	if err := notifier.Publish(ctx, event, payload); err != nil {
		logging.Warn(logger, "notification failed", "notification_failed", logging.Error(err))
	}
}

func reportSummary(report *archive.Report) string {
	return fmt.Sprintf("%s -> %s (%d%% smaller)",
		humanize.Bytes(uint64(report.OriginalSize)),
		humanize.Bytes(uint64(report.FinalSize)),
		report.ReductionPercent,
	)
}

func printReport(out io.Writer, report *archive.Report) {
	var rows [][]string
	for _, entry := range report.Entries {
		if entry.Outcome == archive.OutcomeCopied {
			continue
		}
		rows = append(rows, []string{
			entry.Name,
			string(entry.Outcome),
			humanize.Bytes(uint64(entry.Before)),
			humanize.Bytes(uint64(entry.After)),
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Entry", "Outcome", "Before", "After"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
		))
	}

	fmt.Fprintf(out, "Wrote %s\n", report.Destination)
	fmt.Fprintf(out, "Size before: %s\n", humanize.Bytes(uint64(report.OriginalSize)))
	fmt.Fprintf(out, "Size after: %s\n", humanize.Bytes(uint64(report.FinalSize)))
	fmt.Fprintf(out, "Reduction: %d%%\n", report.ReductionPercent)
	fmt.Fprintf(out, "Entries: %d (%d reduced, %d copied, %d unsupported, %d malformed, %d failed)\n",
		len(report.Entries),
		report.Count(archive.OutcomeReduced),
		report.Count(archive.OutcomeCopied),
		report.Count(archive.OutcomeUnsupported),
		report.Count(archive.OutcomeMalformed),
		report.Count(archive.OutcomeFailed),
	)
}

func historyRun(runID string, report *archive.Report) *history.Run {
	return &history.Run{
		RunID:            runID,
		SourcePath:       report.Source,
		DestinationPath:  report.Destination,
		OriginalBytes:    report.OriginalSize,
		FinalBytes:       report.FinalSize,
		ReductionPercent: report.ReductionPercent,
		JPEGQuality:      report.Params.JPEGQuality,
		PNGCompression:   report.Params.PNGCompression,
		ScalePercent:     report.Params.ScalePercent,
		TargetHeight:     report.Params.Target.Height,
		TargetWidth:      report.Params.Target.Width,
		Entries:          len(report.Entries),
		Reduced:          report.Count(archive.OutcomeReduced),
		Copied:           report.Count(archive.OutcomeCopied),
		Unsupported:      report.Count(archive.OutcomeUnsupported),
		Malformed:        report.Count(archive.OutcomeMalformed),
		Failed:           report.Count(archive.OutcomeFailed),
		StartedAt:        report.StartedAt,
		FinishedAt:       report.FinishedAt,
	}
}
