// =============================================================================
// Bartscher Feed Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (feedgen)
//   ├── generateCmd (feedgen generate)
//   ├── validateCmd (feedgen validate)
//   └── versionCmd  (feedgen version)
//
// EXIT CODES:
//   0  success
//   1  network failure, or any unclassified failure
//   2  spreadsheet or feed parse/schema failure
//   3  configuration or usage error
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/bartscher-feed/internal/config"
	"github.com/ginjaninja78/bartscher-feed/internal/feederr"
	"github.com/ginjaninja78/bartscher-feed/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// defaultConfigFile is used when --config is not given. It may be absent.
const defaultConfigFile = "config.yaml"

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose enables debug logging on the console.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "feedgen",
	Short: "Bartscher feed generator - build the e-shop product XML feed",
	Long: `feedgen converts the Bartscher product spreadsheet and the vendor's
availability list into the product XML feed imported by the e-shop.

Prices are converted from EUR to CZK with the Czech National Bank daily
fixing, and every product gets generated HTML and plain-text descriptions.

Example Usage:
  feedgen generate                       # Fetch, convert and write output/bartscher.xml
  feedgen generate --dry-run -v          # Run every step except the write
  feedgen generate --config ./feed.yaml  # Use a custom configuration file
  feedgen validate --input products.xlsx # Check a spreadsheet offline`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI and exits with the code of the failure kind.
// Ctrl-C cancels in-flight network requests.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs the root command with args and returns the exit code.
func execute(ctx context.Context, args []string) int {
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return feederr.ExitOK
	}

	// Errors from a command body are wrapped in runError; anything else
	// comes from cobra's own argument and flag parsing.
	var re *runError
	var fe *feederr.Error
	if !errors.As(err, &re) && !errors.As(err, &fe) {
		err = feederr.Config("parse command line", err)
	}

	fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	return feederr.ExitCode(err)
}

// runError marks an error returned by a command body. Unclassified run
// errors exit with the network/unclassified code, not the usage code.
type runError struct {
	err error
}

func (e *runError) Error() string { return e.err.Error() }

func (e *runError) Unwrap() error { return e.err }

// commandFailed wraps a command body's error for execute.
func commandFailed(err error) error {
	if err == nil {
		return nil
	}
	return &runError{err: err}
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig reads the configuration named by --config. A missing default
// file falls back to built-in defaults; a missing explicit file is an error.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cfgFile, cmd.Flags().Changed("config"))
}

// newLogger builds the run logger from the configuration and --verbose.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Verbose: verbose,
	})
	if err != nil {
		return nil, feederr.Config("create logger", err)
	}
	return logger, nil
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags.
func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		defaultConfigFile,
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return feederr.Config("parse flags", err)
	})
}
