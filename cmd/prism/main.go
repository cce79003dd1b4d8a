package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"prism/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "prism",
	Short: "Prism native back end toolchain",
	Long:  `Prism lowers typed programs to native object code`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(targetsCmd)
	rootCmd.AddCommand(symbolsCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
