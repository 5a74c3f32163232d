package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tycodec/internal/config"
	"tycodec/internal/descriptor"
	"tycodec/internal/driver"
	"tycodec/internal/types"
)

var genCmd = &cobra.Command{
	Use:   "gen [schema paths...]",
	Short: "Generate codec descriptors for schema files",
	Long: `Generate loads every unit (a directory or a single schema file), checks it and
writes one Go file per unit into the output directory`,
	RunE: runGen,
}

func init() {
	genCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	genCmd.Flags().Bool("watch", false, "regenerate when schema files change")
	genCmd.Flags().Duration("debounce", 200*time.Millisecond, "delay before regenerating in watch mode")
	genCmd.Flags().Bool("no-cache", false, "ignore the descriptor cache")
	genCmd.Flags().Bool("dry-run", false, "generate without writing files")
	genCmd.Flags().StringP("out", "o", "", "output directory (overrides [output].dir)")
	genCmd.Flags().String("package", "", "Go package of generated files (overrides [output].package)")
	genCmd.Flags().StringSlice("formats", nil, "formats to generate (ber,raw,text,xer,json)")
	genCmd.Flags().Bool("split", false, "unexport declarations other units do not need")
	genCmd.Flags().Bool("optimize-memory", false, "contiguous record-of layout")
	genCmd.Flags().Bool("metainfo-unbound", false, "allow JSON metainfo for unbound elements")
	genCmd.Flags().IntP("jobs", "j", 0, "units compiled in parallel (0 = GOMAXPROCS)")
}

func runGen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyGenFlags(cmd, cfg); err != nil {
		return err
	}
	opts, err := baseOptions(cmd, cfg)
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	uiMode, err := readSwitchMode("ui", uiValue)
	if err != nil {
		return err
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("failed to get watch flag: %w", err)
	}
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return fmt.Errorf("failed to get debounce flag: %w", err)
	}

	opts.Jobs = jobs
	opts.Write = !dryRun
	if cfg.CacheEnabled && !noCache {
		cache, err := driver.OpenDiskCache(cacheApp)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: descriptor cache disabled: %v\n", err)
		} else {
			opts.Cache = cache
		}
	}

	once := func(ctx context.Context) error {
		units, err := collectUnits(cfg, args)
		if err != nil {
			return err
		}
		var results []*driver.UnitResult
		// в режиме watch прогресс мешает чтению диагностик
		if !watch && uiMode.enabled(os.Stdout) {
			results, err = compileWithUI(ctx, "tycodec gen", units, opts)
		} else {
			results, err = driver.CompileUnits(ctx, units, opts)
		}
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				dumpRing(cmd, opts.Tracer)
			}
			return err
		}
		return reportResults(cmd, results)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if !watch {
		return once(ctx)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	paths := args
	if len(paths) == 0 {
		paths = cfg.Schemas
	}
	if len(paths) == 0 {
		paths = []string{cfg.Root}
	}
	return driver.Watch(ctx, paths, debounce, func(ctx context.Context) error {
		// ошибки схем не прерывают наблюдение
		if err := once(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
		}
		return nil
	})
}

// applyGenFlags overrides configuration values with the flags the user set explicitly.
func applyGenFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("out") {
		out, _ := flags.GetString("out")
		cfg.OutputDir = out
	}
	if flags.Changed("package") {
		pkg, _ := flags.GetString("package")
		if strings.TrimSpace(pkg) == "" {
			return config.ErrEmptyPackage
		}
		cfg.Package = pkg
	}
	if flags.Changed("formats") {
		names, _ := flags.GetStringSlice("formats")
		set, err := parseFormats(names)
		if err != nil {
			return err
		}
		cfg.Formats = set
	}
	if flags.Changed("split") {
		cfg.Split, _ = flags.GetBool("split")
	}
	if flags.Changed("optimize-memory") {
		if on, _ := flags.GetBool("optimize-memory"); on {
			cfg.Layout = descriptor.LayoutContiguous
		} else {
			cfg.Layout = descriptor.LayoutShared
		}
	}
	if flags.Changed("metainfo-unbound") {
		cfg.MetainfoUnbound, _ = flags.GetBool("metainfo-unbound")
	}
	return nil
}

func parseFormats(names []string) (types.FormatSet, error) {
	var set types.FormatSet
	for _, name := range names {
		f, ok := types.ParseFormat(strings.TrimSpace(name))
		if !ok {
			return 0, fmt.Errorf("%w %q", config.ErrUnknownFormat, name)
		}
		set = set.With(f)
	}
	return set, nil
}
