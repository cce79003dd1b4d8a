package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"prism/internal/driver"
)

var symbolsExportedOnly bool

func init() {
	symbolsCmd.Flags().BoolVar(&symbolsExportedOnly, "exported", false, "show exported functions only")
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <object>",
	Short: "List the symbols recorded in an object's sidecar manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := driver.ReadSymbolManifest(driver.SidecarPath(args[0]))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "package %s (%s)\n", m.Package, m.Target)
		for _, fn := range m.Functions {
			if symbolsExportedOnly && !fn.Exported {
				continue
			}
			vis := "hidden"
			if fn.Exported {
				vis = "export"
			}
			fmt.Fprintf(out, "fn  %-8s %s\n", vis, fn.Symbol)
		}
		if !symbolsExportedOnly {
			for _, g := range m.Globals {
				fmt.Fprintf(out, "val %-8s %s\n", "export", g)
			}
			for _, r := range m.ReadOnly {
				fmt.Fprintf(out, "ro  %-8s %s\n", "export", r)
			}
			for _, e := range m.Externs {
				fmt.Fprintf(out, "ext %-8s %s\n", "import", e)
			}
		}
		return nil
	},
}
