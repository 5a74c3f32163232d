package driver_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"tycodec/internal/config"
	"tycodec/internal/diag"
	"tycodec/internal/driver"
	"tycodec/internal/pipeline"
)

const goodSchema = `
[[module]]
name = "Wire"

[[module.type]]
name = "Frame"
kind = "SEQUENCE"
fields = [
  { name = "id", type = "INTEGER" },
  { name = "body", type = "Octets" },
]

[[module.type]]
name = "Octets"
kind = "SEQUENCE OF"
elem = "INTEGER"
`

const badSchema = `
[[module]]
name = "Broken"

[[module.type]]
name = "A"
kind = "reference"
target = "Nowhere"
`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverUnits(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "wire", "b.toml"), goodSchema)
	writeFile(t, filepath.Join(root, "wire", "a.toml"), goodSchema)
	writeFile(t, filepath.Join(root, "wire", config.FileName), "")
	writeFile(t, filepath.Join(root, "single.toml"), goodSchema)
	writeFile(t, filepath.Join(root, "other", "wire.toml"), goodSchema)

	units, err := driver.DiscoverUnits([]string{
		filepath.Join(root, "wire"),
		filepath.Join(root, "single.toml"),
		filepath.Join(root, "other", "wire.toml"),
	})
	if err != nil {
		t.Fatalf("DiscoverUnits: %v", err)
	}
	var names []string
	for _, u := range units {
		names = append(names, u.Name)
	}
	if !slices.Equal(names, []string{"wire", "single", "wire_2"}) {
		t.Fatalf("unit names = %v", names)
	}
	// файлы отсортированы, конфигурация проекта не считается схемой
	if len(units[0].Files) != 2 || !strings.HasSuffix(units[0].Files[0], "a.toml") {
		t.Fatalf("wire files = %v", units[0].Files)
	}

	if _, err := driver.DiscoverUnits([]string{filepath.Join(root, "missing")}); err == nil {
		t.Fatalf("expected error for a missing path")
	}
}

func TestCompileUnitsGeneratesAndCaches(t *testing.T) {
	root := t.TempDir()
	schemaPath := filepath.Join(root, "wire.toml")
	writeFile(t, schemaPath, goodSchema)
	units, err := driver.DiscoverUnits([]string{schemaPath})
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.Default(root)
	cache, err := driver.OpenDiskCacheAt(filepath.Join(root, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	var rec pipeline.Recorder
	opts := driver.Options{Config: cfg, Write: true, Cache: cache, Progress: &rec, Timings: true}

	first, err := driver.CompileUnits(context.Background(), units, opts)
	if err != nil {
		t.Fatalf("CompileUnits: %v", err)
	}
	res := first[0]
	if res.Failed() {
		t.Fatalf("unexpected errors: %v", res.Bag.Codes())
	}
	if res.Cached || res.Sema == nil {
		t.Fatalf("first run should compile from scratch")
	}
	if !bytes.Contains(res.Output, []byte("package codecs")) {
		t.Fatalf("output lacks package clause:\n%s", res.Output)
	}
	if !slices.ContainsFunc(res.Descriptors, func(n string) bool { return strings.HasSuffix(n, "Frame") }) {
		t.Fatalf("descriptors = %v", res.Descriptors)
	}
	written, err := os.ReadFile(filepath.Join(cfg.OutputDir, "wire.go"))
	if err != nil || !bytes.Equal(written, res.Output) {
		t.Fatalf("written file differs: %v", err)
	}
	if !slices.Contains(res.Bag.Codes(), diag.ObsTimings) {
		t.Fatalf("timings requested but not reported: %v", res.Bag.Codes())
	}
	for _, st := range pipeline.Stages {
		if !res.Timings.Has(st) {
			t.Fatalf("stage %s not timed", st)
		}
	}

	second, err := driver.CompileUnits(context.Background(), units, opts)
	if err != nil {
		t.Fatalf("second CompileUnits: %v", err)
	}
	if !second[0].Cached {
		t.Fatalf("second run should hit the cache")
	}
	if !bytes.Equal(second[0].Output, res.Output) {
		t.Fatalf("cached output differs:\n%s\n---\n%s", second[0].Output, res.Output)
	}
	cached := false
	for _, evt := range rec.Events() {
		if evt.Status == pipeline.StatusCached {
			cached = true
		}
	}
	if !cached {
		t.Fatalf("no cached progress event")
	}

	// другая конфигурация даёт другой ключ
	cfg2 := *cfg
	cfg2.Split = true
	opts.Config = &cfg2
	third, err := driver.CompileUnits(context.Background(), units, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third[0].Cached || third[0].Key == res.Key {
		t.Fatalf("config change must miss the cache")
	}
}

func TestCompileUnitsKeepsUnitsIndependent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "good.toml"), goodSchema)
	writeFile(t, filepath.Join(root, "bad.toml"), badSchema)
	units, err := driver.DiscoverUnits([]string{filepath.Join(root, "good.toml"), filepath.Join(root, "bad.toml")})
	if err != nil {
		t.Fatal(err)
	}

	results, err := driver.CompileUnits(context.Background(), units, driver.Options{Config: config.Default(root), Jobs: 2})
	if err != nil {
		t.Fatalf("CompileUnits: %v", err)
	}
	if results[0].Failed() || len(results[0].Output) == 0 {
		t.Fatalf("good unit failed: %v", results[0].Bag.Codes())
	}
	bad := results[1]
	if !bad.Failed() || bad.Output != nil {
		t.Fatalf("bad unit should fail without output")
	}
	if codes := bad.Bag.Codes(); len(codes) != 1 || codes[0] != diag.IOBadSchema {
		t.Fatalf("bad unit codes = %v", codes)
	}
	if d := bad.Bag.Items()[0]; !d.Primary.Known() {
		t.Fatalf("schema error should point into the file")
	}
}

func TestCompileUnitsCheckOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "wire.toml"), goodSchema)
	units, _ := driver.DiscoverUnits([]string{filepath.Join(root, "wire.toml")})

	var phases []string
	obs := func(evt driver.PhaseEvent) {
		if evt.Status == driver.PhaseEnd {
			phases = append(phases, evt.Name)
		}
	}
	results, err := driver.CompileUnits(context.Background(), units, driver.Options{
		Config:    config.Default(root),
		CheckOnly: true,
		Observer:  obs,
	})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Sema == nil || results[0].Output != nil {
		t.Fatalf("check only should stop after sema")
	}
	if !slices.Equal(phases, []string{"load", "check"}) {
		t.Fatalf("phases = %v", phases)
	}
}

func TestCompileUnitsCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "wire.toml"), goodSchema)
	units, _ := driver.DiscoverUnits([]string{filepath.Join(root, "wire.toml")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := driver.CompileUnits(ctx, units, driver.Options{Config: config.Default(root)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
