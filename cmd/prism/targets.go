package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"prism/internal/target"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List supported targets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		defaultColor := color.New(color.FgGreen, color.Bold)
		useColor := isTerminal(os.Stdout)

		for _, tgt := range target.All() {
			kind := "hosted"
			if !tgt.Hosted() {
				kind = "freestanding"
			}
			triple := tgt.Triple()
			if tgt == target.Default {
				if useColor {
					triple = defaultColor.Sprint(triple)
				}
				kind += ", default"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t(%s, entry %s)\n", triple, kind, tgt.EntrySymbol())
		}
		return nil
	},
}
