// =============================================================================
// Bartscher Feed Generator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the feedgen CLI. It delegates command
// execution to the cmd package.
//
// USAGE:
//   feedgen generate   - Build and write the product XML feed
//   feedgen validate   - Check the configuration and spreadsheet offline
//   feedgen version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/        : CLI command definitions (Cobra)
//   - internal/   : Pipeline components (not for external import)
//   - pkg/        : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/bartscher-feed/cmd"
)

func main() {
	cmd.Execute()
}
