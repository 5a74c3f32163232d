package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tycodec/internal/driver"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the descriptor cache",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Drop every cached unit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := driver.OpenDiskCache(cacheApp)
		if err != nil {
			return err
		}
		if err := cache.DropAll(); err != nil {
			return fmt.Errorf("drop cache: %w", err)
		}
		if quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet"); !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "cache cleared: %s\n", cache.Dir())
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheCleanCmd)
}
