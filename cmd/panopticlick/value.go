package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/panopticlick/Panopticlick-sub001/internal/config"
	"github.com/panopticlick/Panopticlick-sub001/internal/database"
	"github.com/panopticlick/Panopticlick-sub001/internal/methodology"
	"github.com/panopticlick/Panopticlick-sub001/internal/model"
	"github.com/panopticlick/Panopticlick-sub001/internal/pipeline"
	"github.com/panopticlick/Panopticlick-sub001/internal/report"
)

// stdinInput is the input name that reads a submission from stdin.
const stdinInput = "-"

// NewValueCmd creates the value command.
func NewValueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "value [payload.json...]",
		Short: "Value one or more fingerprint payloads",
		Long: `Value computes a valuation report for each fingerprint payload file.

Each report contains:
- Entropy: bits of identifying information per component and in total
- Valuation: inferred persona, simulated auction bids and annual value
- Defenses: protection score, tier and recommendations

A payload file holds one JSON submission: the fingerprint payload, with
optional client-side test results under "testResults". Use - to read stdin.

Reports are saved to the local history database so that later runs can be
compared with 'panopticlick compare'.

Examples:
  # Value a single payload
  panopticlick value payload.json

  # Value many payloads, 4 at a time, and print a summary table
  panopticlick value --batch 4 payloads/*.json

  # Output a Markdown report to a file
  panopticlick value --markdown -o report.md payload.json

  # Reject payloads whose meta.hash does not match their signals
  panopticlick value --verify-hash payload.json

  # Read from stdin without saving
  cat payload.json | panopticlick value --no-save -`,
		Args: cobra.ArbitraryArgs,
		RunE: runValueCmd,
	}

	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent valuations")
	cmd.Flags().StringP("config", "c", "",
		"Methodology override file (default: .panopticlick in current or home directory)")
	cmd.Flags().Bool("verify-hash", false,
		"Reject payloads whose meta.hash does not match the computed digest")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	cmd.Flags().Bool("no-save", false,
		"Do not store reports in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runValueCmd executes the value command.
func runValueCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildValueConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.ValidateValuation(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	tables, err := loadMethodology(cfg)
	if err != nil {
		return err
	}

	logger, err := setupLogger(cmd, cfg.Verbose)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runValue(ctx, cmd, cfg, tables, logger)
}

// buildValueConfig creates a Config from cobra command flags.
func buildValueConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.VerifyHash, err = cmd.Flags().GetBool("verify-hash"); err != nil {
		return nil, err
	}
	if err := applyMethodologyFlag(cmd, cfg); err != nil {
		return nil, err
	}
	if err := applyOutputFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := applyDBFlags(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.Inputs = args
	return cfg, nil
}

// applyMethodologyFlag resolves and loads the methodology override file.
// An explicitly given file must exist; a missing default file is not an error.
func applyMethodologyFlag(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return err
	}

	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.Methodology, err = config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}
	return nil
}

// applyOutputFlags reads the report format flags.
func applyOutputFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	return nil
}

// applyDBFlags reads the history database flags.
func applyDBFlags(cmd *cobra.Command, cfg *config.Config) error {
	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return err
	}
	cfg.SaveToDB = !noSave

	if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return err
	}
	return nil
}

// loadMethodology applies the configured overrides to the built-in tables.
// Any inconsistency is fatal here, before a single payload is valued.
func loadMethodology(cfg *config.Config) (methodology.Tables, error) {
	tables, err := config.Tables(cfg.Methodology)
	if err != nil {
		return methodology.Tables{}, fmt.Errorf("invalid methodology: %w", err)
	}
	return tables, nil
}

// runValue values every input and writes the output.
func runValue(ctx context.Context, cmd *cobra.Command, cfg *config.Config, tables methodology.Tables, logger *slog.Logger) error {
	assembler := pipeline.NewAssembler(tables,
		pipeline.WithLogger(logger),
		pipeline.WithHashVerification(cfg.VerifyHash),
	)

	var db *database.ReportDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
	}

	writer, closeOut, err := newReportWriter(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeOut()

	load := submissionLoader(cmd.InOrStdin())

	if len(cfg.Inputs) == 1 {
		return valueSingle(ctx, assembler, load, cfg.Inputs[0], writer, db, logger)
	}
	return valueBatch(ctx, assembler, load, cfg, writer, db, logger)
}

// valueSingle values one input and writes its full report.
func valueSingle(
	ctx context.Context,
	assembler *pipeline.Assembler,
	load pipeline.Loader,
	input string,
	writer report.Writer,
	db *database.ReportDB,
	logger *slog.Logger,
) error {
	sub, err := load(input)
	if err != nil {
		return err
	}

	valuation, err := assembler.AssembleSubmission(sub)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	if _, err := writer.Write(valuation); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	saveReport(ctx, db, valuation, logger)
	return nil
}

// valueBatch values inputs concurrently and writes one summary per input.
// Failed inputs are listed in the summary; the command fails if any did.
func valueBatch(
	ctx context.Context,
	assembler *pipeline.Assembler,
	load pipeline.Loader,
	cfg *config.Config,
	writer report.Writer,
	db *database.ReportDB,
	logger *slog.Logger,
) error {
	bp := pipeline.NewBatchProcessor(assembler, load,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	results, err := bp.ProcessBatch(ctx, cfg.Inputs)
	if err != nil {
		return fmt.Errorf("batch valuation interrupted: %w", err)
	}

	summaries := make([]report.Summary, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			summaries = append(summaries, report.Failed(r.Name, r.Err))
			continue
		}
		summaries = append(summaries, report.Summarize(r.Name, r.Report))
		saveReport(ctx, db, r.Report, logger)
	}

	if _, err := writer.WriteSummaries(summaries); err != nil {
		return fmt.Errorf("failed to write summaries: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d inputs could not be valued", failed, len(results))
	}
	return nil
}

// submissionLoader returns a Loader reading files, or stdin for "-".
func submissionLoader(stdin io.Reader) pipeline.Loader {
	return func(name string) (*model.Submission, error) {
		if name == stdinInput {
			sub, err := model.DecodeSubmission(stdin)
			if err != nil {
				return nil, fmt.Errorf("stdin: %w", err)
			}
			return sub, nil
		}

		f, err := os.Open(name) //nolint:gosec // User-provided payload path is intentional
		if err != nil {
			return nil, fmt.Errorf("failed to open payload: %w", err)
		}
		defer f.Close()

		sub, err := model.DecodeSubmission(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return sub, nil
	}
}

// openOutput opens the --output file, creating parent directories.
// Reports derive from a personal fingerprint and are kept owner-only.
func openOutput(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// formatWriter selects the writer for the configured format.
func formatWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

// newReportWriter returns the writer for the run. With --output the
// formatted report goes to the file and a plain-text copy to stdout.
func newReportWriter(cmd *cobra.Command, cfg *config.Config) (report.Writer, func(), error) {
	stdout := cmd.OutOrStdout()
	if cfg.ReportFile == "" {
		return formatWriter(cfg, stdout), func() {}, nil
	}

	f, err := openOutput(cfg.ReportFile)
	if err != nil {
		return nil, nil, err
	}
	w := report.NewMultiWriter(
		formatWriter(cfg, f),
		report.NewSimpleWriter(stdout, report.WithVerbose(cfg.Verbose)),
	)
	return w, func() { _ = f.Close() }, nil
}

// saveReport stores a report if a database is open. Failures are logged,
// not returned: the valuation already reached the user.
func saveReport(ctx context.Context, db *database.ReportDB, valuation *model.ValuationReport, logger *slog.Logger) {
	if db == nil {
		return
	}
	id, err := db.SaveReport(ctx, valuation)
	if err != nil {
		logger.Error("failed to save report", "report_id", valuation.Meta.ReportID, "error", err)
		return
	}
	logger.Debug("report saved", "id", id, "report_id", valuation.Meta.ReportID)
}
