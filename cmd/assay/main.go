package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information injected by goreleaser
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:           "assay",
	Short:         "Static analysis for Java test code with policy-gated verdicts",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "assay %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built at: %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().String("project", ".", "Project root containing .assay/")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all log output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log progress at info level")
	rootCmd.PersistentFlags().Bool("debug", false, "Log at debug level")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// A rejected verdict has already been printed.
		if !errors.Is(err, errRejected) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
