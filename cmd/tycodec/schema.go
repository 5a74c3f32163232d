package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tycodec/internal/codegen"
	"tycodec/internal/driver"
	"tycodec/internal/jsonschema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [schema paths...]",
	Short: "Print the JSON schema document of every module",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		units, err := collectUnits(cfg, args)
		if err != nil {
			return err
		}
		opts, err := baseOptions(cmd, cfg)
		if err != nil {
			return err
		}
		opts.CheckOnly = true
		module, _ := cmd.Flags().GetString("module")
		compact, _ := cmd.Flags().GetBool("compact")

		results, err := driver.CompileUnits(cmd.Context(), units, opts)
		if err != nil {
			return err
		}
		if err := reportResults(cmd, results); err != nil {
			return err
		}
		found := false
		for _, res := range results {
			if res == nil || res.Sema == nil {
				continue
			}
			reg := res.Sema.Registry()
			for _, mod := range reg.Modules() {
				if module != "" && mod != module {
					continue
				}
				found = true
				doc := codegen.Schema(res.Sema, mod, cfg.MetainfoUnbound)
				if compact {
					fmt.Fprintln(cmd.OutOrStdout(), jsonschema.Compact(doc))
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), jsonschema.Indent(doc, "  "))
				}
			}
		}
		if module != "" && !found {
			return fmt.Errorf("module %q not found", module)
		}
		return nil
	},
}

func init() {
	schemaCmd.Flags().StringP("module", "m", "", "print only this module")
	schemaCmd.Flags().Bool("compact", false, "print one line per module")
}
