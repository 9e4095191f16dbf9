package main

import (
	"github.com/spf13/cobra"
)

// reduceFlags holds the root command's reduction options.
type reduceFlags struct {
	res            []int
	scale          int
	jpegQuality    int
	pngCompression int
	test           bool
	output         string
	apply          bool
	useCalibration bool
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var flags reduceFlags

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "epubshrink PATH",
		Short: "Shrink EPUB archives by recompressing their images",
		Long: `epubshrink rewrites an EPUB so every JPEG and PNG under OEBPS/Images/ is
optionally downscaled and re-encoded, leaving all other entries byte-identical.
The result is written next to the source as <name>_c.<ext> unless --output is set.

Use --test to open an interactive preview and pick scale and quality first.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			if flags.test {
				return runCalibration(cmd, ctx, args[0], flags)
			}
			return runRewrite(cmd, ctx, args[0], flags)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	f := rootCmd.Flags()
	f.IntSliceVar(&flags.res, "res", nil, "Maximum image resolution as HEIGHT,WIDTH")
	f.IntVar(&flags.scale, "scale", 0, "Scale images to PERCENT of their size (1-100)")
	f.IntVar(&flags.jpegQuality, "jpeg-qual", 30, "JPEG quality (0-100)")
	f.IntVar(&flags.pngCompression, "png-comp", 5, "PNG compression level (0-9)")
	f.BoolVar(&flags.test, "test", false, "Open the interactive calibration preview instead of rewriting")
	f.StringVarP(&flags.output, "output", "o", "", "Destination path (default <name>_c.<ext>)")
	f.BoolVar(&flags.apply, "apply", false, "With --test, rewrite using the accepted scale and quality")
	f.BoolVar(&flags.useCalibration, "use-calibration", false, "Use the scale and quality last accepted for this archive")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))

	return rootCmd
}
