package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch calls run once and then again whenever a schema file under paths changes. Events
// closer together than debounce collapse into one run. Watch returns nil when ctx ends
// and the first error of run otherwise.
func Watch(ctx context.Context, paths []string, debounce time.Duration, run func(context.Context) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	files := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		if !info.IsDir() {
			// fsnotify теряет файл после атомарной замены, поэтому следим за каталогом
			files[abs] = struct{}{}
			if err := w.Add(filepath.Dir(abs)); err != nil {
				return fmt.Errorf("watch %s: %w", abs, err)
			}
			continue
		}
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return w.Add(path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("watch %s: %w", abs, err)
		}
	}

	relevant := func(name string) bool {
		if _, ok := files[name]; ok {
			return true
		}
		if !strings.HasSuffix(name, ".toml") {
			return false
		}
		for f := range files {
			if filepath.Dir(f) == filepath.Dir(name) {
				return false
			}
		}
		return true
	}

	if err := run(ctx); err != nil {
		return err
	}
	return watchLoop(ctx, w.Events, w.Errors, debounce, relevant, run)
}

func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, debounce time.Duration,
	relevant func(string) bool, run func(context.Context) error,
) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
				!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if !relevant(filepath.Clean(ev.Name)) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		case <-fire:
			fire = nil
			if err := run(ctx); err != nil {
				return err
			}
		}
	}
}
