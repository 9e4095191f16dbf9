package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"epubshrink/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent rewrites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No rewrites recorded")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Finished", "Source", "Before", "After", "Saved", "Quality", "Scale", "Images"},
					historyRows(runs),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func historyRows(runs []history.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		scale := "-"
		if run.ScalePercent > 0 {
			scale = fmt.Sprintf("%d%%", run.ScalePercent)
		}
		if run.TargetHeight > 0 && run.TargetWidth > 0 {
			scale = fmt.Sprintf("%s ≤%dx%d", scale, run.TargetHeight, run.TargetWidth)
		}
		rows = append(rows, []string{
			shortRunID(run.RunID),
			run.FinishedAt.Local().Format("2006-01-02 15:04"),
			filepath.Base(run.SourcePath),
			humanize.Bytes(uint64(run.OriginalBytes)),
			humanize.Bytes(uint64(run.FinalBytes)),
			fmt.Sprintf("%d%%", run.ReductionPercent),
			strconv.Itoa(run.JPEGQuality),
			scale,
			fmt.Sprintf("%d/%d", run.Reduced, run.Reduced+run.Unsupported+run.Malformed+run.Failed),
		})
	}
	return rows
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
