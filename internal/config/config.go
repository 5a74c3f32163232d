// Package config loads tycodec.toml.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"tycodec/internal/descriptor"
	"tycodec/internal/types"
)

// Config is the resolved project configuration.
type Config struct {
	// Path is the file the configuration was read from; empty for defaults.
	Path string
	// Root is the directory relative paths are resolved against.
	Root string

	Formats         types.FormatSet
	Layout          descriptor.Layout
	Split           bool
	MetainfoUnbound bool

	OutputDir string
	Package   string

	CacheEnabled bool
	// Schemas lists the type-graph files of the project, resolved against Root.
	Schemas []string
}

var (
	// ErrUnknownFormat is returned for an entry of [codegen].formats that names no format.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrEmptyPackage is returned when [output].package is set to an empty string.
	ErrEmptyPackage = errors.New("empty [output].package")
)

type fileConfig struct {
	Codegen struct {
		Formats         []string `toml:"formats"`
		OptimizeMemory  bool     `toml:"optimize_memory"`
		Split           bool     `toml:"split"`
		MetainfoUnbound bool     `toml:"metainfo_unbound"`
	} `toml:"codegen"`
	Output struct {
		Dir     string `toml:"dir"`
		Package string `toml:"package"`
	} `toml:"output"`
	Cache struct {
		Enabled bool `toml:"enabled"`
	} `toml:"cache"`
	Schemas []string `toml:"schemas"`
}

// Default returns the configuration used when no file is found.
func Default(root string) *Config {
	return &Config{
		Root:         root,
		Formats:      types.NewFormatSet(types.AllFormats[:]...),
		Layout:       descriptor.LayoutShared,
		OutputDir:    filepath.Join(root, "gen"),
		Package:      "codecs",
		CacheEnabled: true,
	}
}

// Load decodes the file at path. Keys that are not set keep their defaults.
func Load(path string) (*Config, error) {
	var fc fileConfig
	meta, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, keys[0].String())
	}

	root := filepath.Dir(path)
	cfg := Default(root)
	cfg.Path = path

	if meta.IsDefined("codegen", "formats") {
		var set types.FormatSet
		for _, name := range fc.Codegen.Formats {
			f, ok := types.ParseFormat(strings.TrimSpace(name))
			if !ok {
				return nil, fmt.Errorf("%s: %w %q", path, ErrUnknownFormat, name)
			}
			set = set.With(f)
		}
		cfg.Formats = set
	}
	if fc.Codegen.OptimizeMemory {
		cfg.Layout = descriptor.LayoutContiguous
	}
	cfg.Split = fc.Codegen.Split
	cfg.MetainfoUnbound = fc.Codegen.MetainfoUnbound

	if meta.IsDefined("output", "dir") {
		cfg.OutputDir = resolve(root, fc.Output.Dir)
	}
	if meta.IsDefined("output", "package") {
		pkg := strings.TrimSpace(fc.Output.Package)
		if pkg == "" {
			return nil, fmt.Errorf("%s: %w", path, ErrEmptyPackage)
		}
		cfg.Package = pkg
	}
	if meta.IsDefined("cache", "enabled") {
		cfg.CacheEnabled = fc.Cache.Enabled
	}
	for _, s := range fc.Schemas {
		cfg.Schemas = append(cfg.Schemas, resolve(root, s))
	}
	return cfg, nil
}

// Discover loads the nearest tycodec.toml above startDir, or the defaults rooted at startDir.
func Discover(startDir string) (*Config, error) {
	path, ok, err := FindConfig(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		abs, err := filepath.Abs(startDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve start directory: %w", err)
		}
		return Default(abs), nil
	}
	return Load(path)
}

func resolve(root, p string) string {
	p = strings.TrimSpace(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, filepath.FromSlash(p))
}
