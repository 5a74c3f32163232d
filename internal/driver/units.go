package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tycodec/internal/config"
)

// Unit is one compilation unit: a set of schema files checked and generated together.
// Types of different units never refer to each other, so units compile in parallel.
type Unit struct {
	Name  string
	Files []string
}

// listSchemaFiles возвращает отсортированный список всех *.toml файлов в директории
func listSchemaFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".toml") && d.Name() != config.FileName {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// DiscoverUnits turns schema paths into units. A directory is one unit holding every schema
// file below it; a file is a unit of its own. Unit names are unique.
func DiscoverUnits(paths []string) ([]Unit, error) {
	var units []Unit
	seen := make(map[string]int)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("schema path: %w", err)
		}
		u := Unit{Name: unitName(p)}
		if info.IsDir() {
			u.Files, err = listSchemaFiles(p)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p, err)
			}
			if len(u.Files) == 0 {
				return nil, fmt.Errorf("%s: no schema files", p)
			}
		} else {
			u.Files = []string{p}
		}
		if n := seen[u.Name]; n > 0 {
			seen[u.Name] = n + 1
			u.Name = fmt.Sprintf("%s_%d", u.Name, n+1)
		} else {
			seen[u.Name] = 1
		}
		units = append(units, u)
	}
	return units, nil
}

func unitName(path string) string {
	base := filepath.Base(filepath.Clean(path))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "unit"
	}
	return b.String()
}
