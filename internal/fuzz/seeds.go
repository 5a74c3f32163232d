package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
	maxFuzzInput = 16 << 10
)

var schemaSeeds = []string{
	"",
	"[[module]]\nname = \"A\"\n",
	"[[module]]\nname = \"A\"\n[[module.type]]\nname = \"L\"\nkind = \"SEQUENCE OF\"\nelem = \"INTEGER\"\n",
	"[[module]]\nname = \"A\"\n[[module.type]]\nname = \"R\"\nkind = \"record\"\nfields = [{ name = \"next\", type = \"R\", optional = true }]\n",
	"[[module]]\nname = \"A\"\ntagging = \"implicit\"\n[[module.type]]\nname = \"C\"\nkind = \"CHOICE\"\n" +
		"fields = [{ name = \"a\", type = \"INTEGER\" }, { name = \"b\", type = \"INTEGER\" }]\n",
}

func addSchemaSeeds(f *testing.F) {
	for _, s := range schemaSeeds {
		f.Add([]byte(s))
	}
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все *.toml файлы
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".toml" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}
