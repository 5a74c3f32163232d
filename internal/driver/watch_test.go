package driver

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestWatchLoopDebounces(t *testing.T) {
	events := make(chan fsnotify.Event)
	errs := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	ran := make(chan struct{}, 4)
	run := func(context.Context) error {
		runs.Add(1)
		ran <- struct{}{}
		return nil
	}
	relevant := func(name string) bool { return name == "/s/a.toml" }

	done := make(chan error, 1)
	go func() { done <- watchLoop(ctx, events, errs, 20*time.Millisecond, relevant, run) }()

	events <- fsnotify.Event{Name: "/s/a.toml", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "/s/a.toml", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "/s/other.txt", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "/s/a.toml", Op: fsnotify.Chmod}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("debounced run never happened")
	}
	time.Sleep(60 * time.Millisecond)
	if n := runs.Load(); n != 1 {
		t.Fatalf("runs = %d, want 1", n)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watchLoop returned %v after cancel", err)
	}
}
