package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tycodec/internal/version"
)

type versionInfo struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(versionInfo{
				Version:    strings.TrimSpace(version.Version),
				GitCommit:  strings.TrimSpace(version.GitCommit),
				GitMessage: strings.TrimSpace(version.GitMessage),
				BuildDate:  strings.TrimSpace(version.BuildDate),
			})
		case "pretty":
			colored, err := useColor(cmd, os.Stdout)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), version.Summary(colored))
			return nil
		default:
			return fmt.Errorf("unknown format %q (expected pretty|json)", format)
		}
	},
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}
