// =============================================================================
// Bartscher Feed Generator - Version Command
// =============================================================================
//
// This file defines the 'version' command. Release builds stamp Version and
// BuildDate with ldflags; the VCS revision comes from the Go build info.
//
// COMMAND USAGE:
//   feedgen version [--short]
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is the application version.
var Version = "1.0.0"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

// versionShort prints only the version string.
var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout(), versionShort)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
}

// printVersion writes the version report. The revision line is omitted when
// the binary carries no VCS stamp.
func printVersion(out io.Writer, short bool) {
	if short {
		fmt.Fprintln(out, Version)
		return
	}

	fmt.Fprintf(out, "feedgen %s (Bartscher Feed Generator)\n", Version)
	fmt.Fprintf(out, "  built:    %s\n", BuildDate)
	fmt.Fprintf(out, "  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if rev, dirty := vcsRevision(); rev != "" {
		if dirty {
			rev += " (modified)"
		}
		fmt.Fprintf(out, "  revision: %s\n", rev)
	}
}

// vcsRevision reads the commit the binary was built from.
func vcsRevision() (string, bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}

	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	return rev, dirty
}
