package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/oggkit/internal/config"
	"github.com/jmylchreest/oggkit/internal/fileio"
	"github.com/jmylchreest/oggkit/internal/observability"
	"github.com/jmylchreest/oggkit/internal/report"
	"github.com/jmylchreest/oggkit/internal/validate"
)

var (
	validatePartial    bool
	validateListErrors bool
)

// errInvalidFiles is returned when at least one input failed to open or validate.
var errInvalidFiles = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate [flags] file...",
	Short: "Validate the Ogg framing of one or more files",
	Long: `Validate the Ogg framing of one or more files.

Every packet is checked for ordering, beginning and end of stream markers,
granule position consistency and the other Ogg framing constraints.
Use --list-errors to see every error that is detected.

Exit status is 0 if all input files are valid, 1 otherwise.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if validateListErrors {
			return nil
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: runValidate,
}

func init() {
	f := validateCmd.Flags()
	f.IntP("max-errors", "M", validate.DefaultMaxErrors, "exit after the specified number of errors (0 for no maximum)")
	f.BoolP("prefix", "p", false, "treat input as the prefix of a stream; suppress missing eos errors")
	f.BoolP("suffix", "s", false, "treat input as the suffix of a stream; suppress missing bos errors on the first chain")
	f.BoolVarP(&validatePartial, "partial", "P", false, "treat input as the middle portion of a stream; same as --prefix --suffix")
	f.BoolVarP(&validateListErrors, "list-errors", "E", false, "list known types of error and exit")
	f.String("read-size", "1KB", "bytes read per pass")
	mustBindPFlag("validate.max_errors", f.Lookup("max-errors"))
	mustBindPFlag("validate.prefix", f.Lookup("prefix"))
	mustBindPFlag("validate.suffix", f.Lookup("suffix"))
	mustBindPFlag("validate.read_size", f.Lookup("read-size"))
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if validateListErrors {
		fmt.Fprintln(cmd.OutOrStdout(), "oggkit validate detects the following errors in Ogg framing:")
		report.ListKinds(cmd.OutOrStdout())
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if validatePartial {
		cfg.Validation.Prefix = true
		cfg.Validation.Suffix = true
	}

	logger := observability.WithComponent(slog.Default(), "validate")
	ctx := observability.ContextWithCorrelationID(cmd.Context(), runID)

	rend := report.New(os.Stderr, report.Options{
		Program:   "oggkit validate",
		Color:     report.UseColor(cfg.Output.Color, os.Stderr),
		MultiFile: len(args) > 1,
	})

	failed := 0
	for _, name := range args {
		if !validateFile(ctx, name, cfg.Validation, rend, observability.WithFile(logger, name)) {
			failed++
		}
	}

	if len(args) > 1 {
		rend.Summary()
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d file(s)", errInvalidFiles, failed, len(args))
	}
	return nil
}

// validateFile validates one input and reports whether it passed.
func validateFile(ctx context.Context, name string, cfg config.ValidateConfig, rend *report.Renderer, logger *slog.Logger) (ok bool) {
	rend.StartFile(name)
	defer func() { rend.EndFile(!ok) }()

	src, err := fileio.Open(name)
	if err != nil {
		rend.OpenFailure(name, err)
		return false
	}
	defer src.Close()

	res, err := validate.Validate(ctx, src, validate.Options{
		MaxErrors: cfg.MaxErrors,
		Prefix:    cfg.Prefix,
		Suffix:    cfg.Suffix,
		ReadSize:  cfg.ReadSize.Int(),
		Report:    rend.Diagnostic,
		Logger:    logger,
	})
	if res.Bailed {
		rend.Bail()
	}
	if err != nil {
		observability.WithError(logger, err).ErrorContext(ctx, "validation aborted")
		return false
	}

	logger.DebugContext(ctx, "file validated",
		slog.Int("errors", res.Errors),
		slog.Int("chains", res.Chains),
		slog.Int("tracks", res.Tracks),
		slog.Int64("bytes", res.Bytes),
	)
	return res.OK()
}
