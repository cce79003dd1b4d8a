package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prism/internal/version"
)

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

var versionFormat string

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show prism build metadata",
	RunE: func(cmd *cobra.Command, _ []string) error {
		switch strings.ToLower(versionFormat) {
		case "pretty":
			fmt.Fprintf(cmd.OutOrStdout(), "prism %s\n", version.Version)
			if version.GitCommit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", version.GitCommit)
			}
			if version.BuildDate != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "built:  %s\n", version.BuildDate)
			}
			return nil
		case "json":
			payload := versionPayload{
				Tool:      "prism",
				Version:   version.Version,
				GitCommit: version.GitCommit,
				BuildDate: version.BuildDate,
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		default:
			return fmt.Errorf("unknown format %q (expected: pretty|json)", versionFormat)
		}
	},
}
