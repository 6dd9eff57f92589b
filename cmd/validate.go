// =============================================================================
// Bartscher Feed Generator - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It checks the configuration and
// the product spreadsheet without touching the network or the output file.
//
// COMMAND USAGE:
//   feedgen validate [--input products.xlsx]
//
// CHECKS:
//   - configuration loads and validates
//   - required spreadsheet columns exist and every price parses
//   - per-record warnings (GTIN check digit, sale below purchase, no images)
//
// =============================================================================

package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/bartscher-feed/internal/validation"
	"github.com/ginjaninja78/bartscher-feed/internal/xlsxparser"
)

// validateInput overrides the configured spreadsheet.
var validateInput string

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and spreadsheet offline",
	Long: `The validate command loads the configuration and the product spreadsheet,
runs the record checks and reports what it found. Nothing is fetched and
nothing is written. Warnings do not fail the command; a missing column or an
unparseable price does.`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		return commandFailed(runValidate(cmd))
	},
}

// init registers the validate command with the root command.
func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateInput, "input", "", "Product spreadsheet (overrides input_path)")
}

// runValidate loads the spreadsheet and prints the validation report.
func runValidate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("input") {
		cfg.InputPath = validateInput
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	fmt.Fprintln(out, "=== Bartscher Feed Validation ===")
	fmt.Fprintf(out, "Configuration:   OK (%s)\n", cfgFile)

	loader := xlsxparser.NewLoader(xlsxparser.Options{
		Columns:         cfg.Columns,
		SheetName:       cfg.SheetName,
		SkipInvalidRows: cfg.SkipInvalidRows,
	}, logger)

	loaded, err := loader.Load(cfg.InputPath)
	if err != nil {
		fmt.Fprintf(out, "Spreadsheet:     FAILED (%s)\n", cfg.InputPath)
		return err
	}

	report := validation.Validate(loaded.Records)

	fmt.Fprintf(out, "Spreadsheet:     OK (%s)\n", cfg.InputPath)
	fmt.Fprintf(out, "Records:         %d\n", report.RecordsValidated)
	fmt.Fprintf(out, "Rows skipped:    %d\n", loaded.Skipped)
	fmt.Fprintf(out, "Duplicate codes: %d\n", len(loaded.Duplicates))

	counts := report.CountByRule()
	rules := make([]string, 0, len(counts))
	for rule := range counts {
		rules = append(rules, rule)
	}
	sort.Strings(rules)
	for _, rule := range rules {
		fmt.Fprintf(out, "  %-12s %d\n", rule+":", counts[rule])
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, validation.FormatWarnings(report.Warnings))
	if len(report.Warnings) == 0 {
		fmt.Fprintln(out)
	}

	return nil
}
