package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tycodec/internal/config"
	"tycodec/internal/diagfmt"
	"tycodec/internal/driver"
	"tycodec/internal/observ"
	"tycodec/internal/trace"
)

const cacheApp = "tycodec"

// loadConfig reads --config or the nearest tycodec.toml above the working directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return config.Discover(wd)
}

// collectUnits turns the command arguments into units. Without arguments the schemas
// listed in the configuration are used, and without those the project root.
func collectUnits(cfg *config.Config, args []string) ([]driver.Unit, error) {
	src := args
	if len(src) == 0 {
		src = cfg.Schemas
	}
	if len(src) == 0 {
		src = []string{cfg.Root}
	}
	paths := make([]string, len(src))
	for i, p := range src {
		paths[i] = filepath.Clean(p)
	}
	return driver.DiscoverUnits(paths)
}

// baseOptions fills the driver options shared by every command from the global flags.
func baseOptions(cmd *cobra.Command, cfg *config.Config) (driver.Options, error) {
	flags := cmd.Root().PersistentFlags()
	maxDiagnostics, err := flags.GetInt("max-diagnostics")
	if err != nil {
		return driver.Options{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return driver.Options{}, fmt.Errorf("failed to get timings flag: %w", err)
	}
	return driver.Options{
		Config:         cfg,
		MaxDiagnostics: maxDiagnostics,
		Tracer:         tracerOf(cmd),
		Timings:        timings,
	}, nil
}

func tracerOf(cmd *cobra.Command) trace.Tracer {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return trace.FromContext(ctx)
}

// reportResults prints the diagnostics of every unit and returns an error when any unit
// failed.
func reportResults(cmd *cobra.Command, results []*driver.UnitResult) error {
	flags := cmd.Root().PersistentFlags()
	format, err := flags.GetString("diagnostics-format")
	if err != nil {
		return fmt.Errorf("failed to get diagnostics-format flag: %w", err)
	}
	pathModeStr, err := flags.GetString("path-mode")
	if err != nil {
		return fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	pathMode, ok := diagfmt.ParsePathMode(pathModeStr)
	if !ok {
		return fmt.Errorf("invalid --path-mode value %q", pathModeStr)
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	colored, err := useColor(cmd, os.Stderr)
	if err != nil {
		return err
	}

	out := cmd.ErrOrStderr()
	failed := 0
	var reports []observ.Report
	for _, res := range results {
		if res == nil {
			continue
		}
		reports = append(reports, res.Report)
		if res.Failed() {
			failed++
		}
		res.Bag.Sort()
		switch format {
		case "json":
			opts := diagfmt.JSONOpts{IncludePositions: true, PathMode: pathMode, IncludeNotes: true, IncludeSource: true}
			if err := diagfmt.JSON(cmd.OutOrStdout(), res.Bag, res.FileSet, opts); err != nil {
				return err
			}
		case "pretty":
			opts := diagfmt.PrettyOpts{Color: colored, Context: 1, PathMode: pathMode, ShowNotes: true}
			diagfmt.Pretty(out, res.Bag, res.FileSet, opts)
		default:
			return fmt.Errorf("unknown diagnostics format %q (expected pretty|json)", format)
		}
		if !quiet && format == "pretty" && !res.Failed() {
			switch {
			case res.Cached && res.Path != "":
				fmt.Fprintf(out, "%s: up to date, %s\n", res.Unit.Name, res.Path)
			case res.Path != "":
				fmt.Fprintf(out, "%s: %d descriptors, %s\n", res.Unit.Name, len(res.Descriptors), res.Path)
			case res.Sema != nil && res.Output == nil:
				fmt.Fprintf(out, "%s: ok\n", res.Unit.Name)
			}
		}
	}
	if timings && format == "pretty" && len(reports) > 1 {
		fmt.Fprint(out, observ.Combine(reports...).Summary())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d units failed", failed, len(results))
	}
	return nil
}

