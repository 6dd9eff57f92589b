// =============================================================================
// Bartscher Feed Generator - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, which runs the whole pipeline.
//
// COMMAND USAGE:
//   feedgen generate [flags]
//
// FLAGS:
//   --input     : Product spreadsheet (overrides input_path)
//   --output    : Feed destination (overrides output_path)
//   --dry-run   : Run every step except writing the feed
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Fetch the exchange rate
//   3. Fetch the availability feed
//   4. Load the spreadsheet
//   5. Transform and generate the XML
//   6. Write the feed, the run summary and the metrics textfile
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/bartscher-feed/internal/availability"
	"github.com/ginjaninja78/bartscher-feed/internal/config"
	"github.com/ginjaninja78/bartscher-feed/internal/converter"
	"github.com/ginjaninja78/bartscher-feed/internal/exchange"
	"github.com/ginjaninja78/bartscher-feed/internal/feederr"
	"github.com/ginjaninja78/bartscher-feed/internal/fetch"
	"github.com/ginjaninja78/bartscher-feed/internal/metrics"
	"github.com/ginjaninja78/bartscher-feed/internal/xlsxparser"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun runs the pipeline without writing the feed.
var dryRun bool

// inputPath overrides the configured spreadsheet.
var inputPath string

// outputPath overrides the configured feed destination.
var outputPath string

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

// generateCmd represents the 'generate' command.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the product XML feed",
	Long: `The generate command fetches the EUR->CZK rate and the availability list,
loads the product spreadsheet, and writes the XML feed.

Any failure stops the run before the output file is touched, so a previous
feed is never replaced by a partial one.`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		return commandFailed(runGenerate(cmd))
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the generate command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&inputPath, "input", "", "Product spreadsheet (overrides input_path)")
	generateCmd.Flags().StringVar(&outputPath, "output", "", "Feed destination (overrides output_path)")
	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run every step except writing the feed")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runGenerate builds the pipeline from the configuration and runs it.
func runGenerate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyPathFlags(cmd, cfg); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// =========================================================================
	// STEP 2: WIRE COMPONENTS
	// =========================================================================

	client := fetch.NewClient(fetch.Options{
		Timeout:           cfg.HTTP.Timeout,
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		UserAgent:         cfg.HTTP.UserAgent,
	}, logger)

	rateSource, err := exchange.New(cfg.ExchangeRate, client, logger)
	if err != nil {
		return err
	}

	deps := converter.Dependencies{
		Rate:         rateSource,
		Availability: availability.NewFetcher(cfg.Availability, client, logger),
		Loader: xlsxparser.NewLoader(xlsxparser.Options{
			Columns:         cfg.Columns,
			SheetName:       cfg.SheetName,
			SkipInvalidRows: cfg.SkipInvalidRows,
		}, logger),
	}
	if cfg.MetricsTextfile != "" {
		deps.Metrics = metrics.New()
	}

	// =========================================================================
	// STEP 3: RUN
	// =========================================================================

	fmt.Fprintln(out, "=== Bartscher Feed Generator ===")

	result := converter.New(cfg, deps, converter.Options{DryRun: dryRun}, logger).Run(cmd.Context())

	printResult(out, result)

	return result.Error
}

// applyPathFlags copies --input and --output into the configuration.
func applyPathFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("input") {
		cfg.InputPath = inputPath
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputPath = outputPath
	}
	if err := config.Validate(cfg); err != nil {
		return feederr.Config("validate flags", err)
	}
	return nil
}

// printResult writes the run summary to the console.
func printResult(out io.Writer, result converter.Result) {
	stats := result.Stats

	if !result.Success {
		fmt.Fprintf(out, "  ✗ %s: %v\n", result.InputFile, result.Error)
		return
	}

	output := result.OutputFile
	if output == "" {
		output = "(dry run, not written)"
	}

	fmt.Fprintf(out, "  ✓ %s -> %s\n", result.InputFile, output)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "=== Generation Complete ===")
	fmt.Fprintf(out, "Exchange rate:   %s CZK/EUR\n", stats.ExchangeRate)
	fmt.Fprintf(out, "Records loaded:  %d\n", stats.RecordsLoaded)
	fmt.Fprintf(out, "Rows skipped:    %d\n", stats.RecordsSkipped)
	fmt.Fprintf(out, "Products:        %d\n", stats.ProductsWritten)
	fmt.Fprintf(out, "In stock:        %d\n", stats.InStock)
	fmt.Fprintf(out, "Warnings:        %d\n", stats.Warnings)
	fmt.Fprintf(out, "Time elapsed:    %s\n", stats.ProcessingTime)
	if result.SummaryFile != "" {
		fmt.Fprintf(out, "Summary:         %s\n", result.SummaryFile)
	}
}
