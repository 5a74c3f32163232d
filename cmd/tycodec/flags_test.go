package main

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/cobra"

	"tycodec/internal/config"
	"tycodec/internal/descriptor"
	"tycodec/internal/types"
)

func TestReadSwitchMode(t *testing.T) {
	tests := []struct {
		in      string
		want    switchMode
		wantErr bool
	}{
		{"", modeAuto, false},
		{"AUTO", modeAuto, false},
		{" on ", modeOn, false},
		{"always", modeOn, false},
		{"never", modeOff, false},
		{"maybe", "", true},
	}
	for _, tt := range tests {
		got, err := readSwitchMode("ui", tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("readSwitchMode(%q) = %q, %v", tt.in, got, err)
		}
	}
	if !modeOn.enabled(nil) || modeOff.enabled(nil) {
		t.Fatalf("explicit modes must ignore the terminal")
	}
}

func TestParseFormats(t *testing.T) {
	set, err := parseFormats([]string{"ber", " JSON "})
	if err != nil {
		t.Fatalf("parseFormats: %v", err)
	}
	if !set.Has(types.FormatBER) || !set.Has(types.FormatJSON) || set.Has(types.FormatRAW) {
		t.Fatalf("set = %v", set.Formats())
	}
	if _, err := parseFormats([]string{"asn"}); !errors.Is(err, config.ErrUnknownFormat) {
		t.Fatalf("err = %v", err)
	}
}

func TestApplyGenFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "gen"}
	cmd.Flags().AddFlagSet(genCmd.Flags())
	if err := cmd.ParseFlags([]string{"--out", "/tmp/x", "--package", "wire", "--formats", "raw", "--optimize-memory"}); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default("/p")
	if err := applyGenFlags(cmd, cfg); err != nil {
		t.Fatalf("applyGenFlags: %v", err)
	}
	if cfg.OutputDir != "/tmp/x" || cfg.Package != "wire" || cfg.Layout != descriptor.LayoutContiguous {
		t.Fatalf("cfg = %+v", cfg)
	}
	if !slices.Equal(cfg.Formats.Formats(), []types.Format{types.FormatRAW}) {
		t.Fatalf("formats = %v", cfg.Formats.Formats())
	}
	if cfg.Split {
		t.Fatalf("unset flag changed the config")
	}
}

func TestCollectUnitsFallsBack(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.toml"), []byte("[[module]]\nname = \"A\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default(root)

	units, err := collectUnits(cfg, nil)
	if err != nil || len(units) != 1 || len(units[0].Files) != 1 {
		t.Fatalf("units = %+v, err = %v", units, err)
	}

	cfg.Schemas = []string{filepath.Join(root, "a.toml") + string(filepath.Separator)}
	units, err = collectUnits(cfg, nil)
	if err != nil || units[0].Name != "a" {
		t.Fatalf("units = %+v, err = %v", units, err)
	}
	if cfg.Schemas[0] == filepath.Join(root, "a.toml") {
		t.Fatalf("collectUnits must not rewrite the configuration")
	}
}
