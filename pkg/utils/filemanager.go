// =============================================================================
// Bartscher Feed Generator - File Manager Utility
// =============================================================================
//
// This module provides the file utilities shared by the writer and the CLI:
//   - Directory management
//   - Atomic file replacement (temp file + rename)
//   - Run summary generation
//
// ATOMIC WRITES:
//   Data is written to a uuid-named temporary file in the destination
//   directory, synced, then renamed over the destination. Readers see either
//   the previous file or the complete new one.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates dir and its parents if they don't exist.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// WriteFileAtomic replaces path with data.
//
// PARAMETERS:
//   - path: The destination file. Its directory is created if needed.
//   - data: The full file content.
//   - perm: The permission bits of the new file.
//
// RETURNS:
//   - An error if any step fails. The temporary file is removed on failure.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))

	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	cleanup := func() {
		file.Close()
		os.Remove(tmpPath)
	}

	if _, err := file.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	return nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains the outcome of one feed generation run.
type RunSummary struct {
	RunID        string
	StartTime    time.Time
	EndTime      time.Time
	InputFile    string
	OutputFile   string
	ExchangeRate string
	Records      int
	Skipped      int
	Products     int
	InStock      int
	Warnings     int
	DryRun       bool
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// WriteSummaryLog writes a run summary to a text file in outputDir.
//
// PARAMETERS:
//   - summary: The run summary.
//   - outputDir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	if err := EnsureDir(outputDir); err != nil {
		return "", err
	}

	// Generate summary file name.
	timestamp := summary.EndTime.Format("20060102_150405")
	summaryFileName := fmt.Sprintf("feed_summary_%s.txt", timestamp)
	summaryPath := filepath.Join(outputDir, summaryFileName)

	// Create the file.
	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	output := summary.OutputFile
	if summary.DryRun {
		output = "(dry run, not written)"
	}

	fmt.Fprintf(writer, "Bartscher Feed Generator - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Input:          %s\n"+
		"  Output:         %s\n"+
		"  Exchange Rate:  %s CZK/EUR\n\n"+
		"Statistics:\n"+
		"  Records Loaded:    %d\n"+
		"  Rows Skipped:      %d\n"+
		"  Products Written:  %d\n"+
		"  In Stock:          %d\n"+
		"  Warnings:          %d\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.InputFile,
		output,
		summary.ExchangeRate,
		summary.Records,
		summary.Skipped,
		summary.Products,
		summary.InStock,
		summary.Warnings)

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}
