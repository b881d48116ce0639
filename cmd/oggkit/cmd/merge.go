package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/oggkit/internal/fileio"
	"github.com/jmylchreest/oggkit/internal/merge"
	"github.com/jmylchreest/oggkit/internal/observability"
	"github.com/jmylchreest/oggkit/internal/report"
)

var mergeOutput string

// errNoOpenInputs is returned when none of the named inputs could be opened.
var errNoOpenInputs = errors.New("no input files could be opened")

var mergeCmd = &cobra.Command{
	Use:   "merge [flags] file...",
	Short: "Interleave Ogg files by presentation time",
	Long: `Merge Ogg files together, interleaving their pages in order of
presentation time. Every track of every input is carried into the output
unchanged.

Inputs may be compressed with gzip, bzip2 or xz; "-" reads standard input.
An output name ending in .gz, .bz2, .xz or .br is compressed accordingly.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", fileio.Stdio, "output file (\"-\" for standard output)")
	mergeCmd.Flags().BoolP("verbose", "V", false, "trace page selection at debug level")
	mergeCmd.Flags().String("read-size", "4KB", "bytes read from an input per refill")
	mustBindPFlag("merge.verbose", mergeCmd.Flags().Lookup("verbose"))
	mustBindPFlag("merge.read_size", mergeCmd.Flags().Lookup("read-size"))
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	base := slog.Default()
	if cfg.Merge.Verbose {
		debugCfg := logCfg
		debugCfg.Level = "debug"
		base = newLogger(debugCfg)
	}
	logger := observability.WithComponent(base, "merge")
	ctx := observability.ContextWithCorrelationID(cmd.Context(), runID)

	done := observability.TimedOperationWithError(ctx, logger, "merge", &err)
	defer done()

	rend := report.New(os.Stderr, report.Options{
		Program: "oggkit merge",
		Color:   report.UseColor(cfg.Output.Color, os.Stderr),
	})

	session := merge.New(merge.Options{ReadSize: cfg.Merge.ReadSize.Int(), Logger: logger})
	defer session.Close()

	for _, name := range args {
		src, openErr := fileio.Open(name)
		if openErr != nil {
			rend.OpenFailure(name, openErr)
			observability.WithError(observability.WithFile(logger, name), openErr).Warn("skipping input")
			continue
		}
		session.Add(name, src)
	}
	if session.Len() == 0 {
		return errNoOpenInputs
	}

	out, err := fileio.Create(mergeOutput)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	stats, runErr := session.Run(ctx, out)
	if closeErr := out.Close(); closeErr != nil && runErr == nil {
		runErr = fmt.Errorf("closing output: %w", closeErr)
	}
	for _, w := range stats.Warnings {
		fmt.Fprintf(os.Stderr, "oggkit merge: WARNING: %s\n", w)
	}
	if runErr != nil {
		return runErr
	}

	observability.WithFile(logger, mergeOutput).InfoContext(ctx, report.MergeSummary(stats),
		slog.Int64("rounds", stats.Rounds),
		slog.Int("read_failures", stats.ReadFailures),
	)
	return nil
}
