package fuzztests

import (
	"errors"
	"testing"

	"tycodec/internal/diag"
	"tycodec/internal/schema"
	"tycodec/internal/sema"
	"tycodec/internal/source"
	"tycodec/internal/testkit"
	"tycodec/internal/types"
)

func FuzzSchemaLoader(f *testing.F) {
	addSchemaSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		fs := source.NewFileSet()
		reg := types.NewRegistry()
		l := schema.NewLoader(fs, reg)
		err := l.LoadBytes("fuzz.toml", input)
		if err == nil {
			err = l.Finish()
		}
		if err != nil {
			var le *schema.LoadError
			if !errors.As(err, &le) {
				t.Fatalf("loader returned %T, want *schema.LoadError: %v", err, err)
			}
			return
		}
		if err := testkit.CheckGraphInvariants(reg, fs); err != nil {
			t.Fatalf("graph invariants: %v", err)
		}

		bag := diag.NewBag(128)
		res := sema.Check(reg, sema.Options{Reporter: diag.BagReporter{Bag: bag}})
		if res == nil {
			t.Fatalf("sema.Check returned nil")
		}
	})
}
