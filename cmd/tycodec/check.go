package main

import (
	"os"

	"github.com/spf13/cobra"

	"tycodec/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check [schema paths...]",
	Short: "Check schema files without generating code",
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

		uiValue, _ := cmd.Flags().GetString("ui")
		uiMode, err := readSwitchMode("ui", uiValue)
		if err != nil {
			return err
		}
		var results []*driver.UnitResult
		if uiMode.enabled(os.Stdout) && len(units) > 1 {
			results, err = compileWithUI(cmd.Context(), "tycodec check", units, opts)
		} else {
			results, err = driver.CompileUnits(cmd.Context(), units, opts)
		}
		if err != nil {
			return err
		}
		return reportResults(cmd, results)
	},
}

func init() {
	checkCmd.Flags().String("ui", "off", "progress view (auto|on|off)")
}
