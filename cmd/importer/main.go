package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/ProductImport/internal/config"
	"github.com/JonMunkholm/ProductImport/internal/core"
	"github.com/JonMunkholm/ProductImport/internal/csv"
	"github.com/JonMunkholm/ProductImport/internal/logging"
	"github.com/JonMunkholm/ProductImport/internal/report"
	"github.com/JonMunkholm/ProductImport/internal/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	dryRun       bool
	configFile   string
	htmlReport   string
	ensureSchema bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if msg := core.FormatUserError(err); core.IsUserFacing(err) {
			fmt.Fprintf(os.Stderr, "importer: %s\n", msg)
		}
		fmt.Fprintf(os.Stderr, "importer: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "importer <file>",
		Short: "Import products from a CSV or XLSX file",
		Long: `importer reads a product file, validates every row against the product
schema and business rules, and saves accepted products to PostgreSQL.

Rows that fail are skipped and listed with their line number and reason.
In test mode (--test or --dry-run) nothing is written to the database.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts, args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&opts.dryRun, "test", false, "Validate rows without saving products")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Alias for --test")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "Config file (default: ./importer.yaml if present)")
	cmd.Flags().StringVar(&opts.htmlReport, "html-report", "", "Also write an HTML report to this path")
	cmd.Flags().BoolVar(&opts.ensureSchema, "ensure-schema", false, "Create the product table if it does not exist")
	return cmd
}

func runImport(ctx context.Context, opts options, path string, stdout io.Writer) error {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err == nil {
		slog.Debug("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String(), "dry_run", opts.dryRun)

	var store core.Persister
	if !opts.dryRun {
		if err := cfg.RequireDatabase(); err != nil {
			return err
		}
		pool, err := storage.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		if opts.ensureSchema {
			if err := storage.EnsureSchema(ctx, pool); err != nil {
				return err
			}
		}
		store = storage.NewProductStore(pool)
	}

	processor, err := core.NewRowProcessor(
		core.NewProductSchema(),
		core.DefaultRuleEngine(),
		store,
		opts.dryRun,
		core.WithSaveTimeout(cfg.Import.SaveTimeout),
	)
	if err != nil {
		return err
	}

	progress := report.NewProgress(stdout)
	importer := core.NewImporter(processor,
		core.WithReadOptions(csv.Options{
			MaxFileSize: cfg.Import.MaxFileSize,
			Delimiter:   cfg.Import.DelimiterRune(),
		}),
		core.WithProgress(progress.Row),
	)

	summary, err := importer.ImportFile(ctx, path)
	if err != nil {
		return err
	}
	progress.Finish()

	if err := report.WriteSummary(stdout, summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if opts.htmlReport != "" {
		if err := writeHTMLReport(ctx, opts.htmlReport, summary); err != nil {
			return err
		}
	}
	return nil
}

func writeHTMLReport(ctx context.Context, path string, summary *core.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create html report: %w", err)
	}
	if err := report.WriteHTML(ctx, f, summary); err != nil {
		f.Close()
		return fmt.Errorf("write html report: %w", err)
	}
	return f.Close()
}
