package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"tycodec/internal/driver"
	"tycodec/internal/pipeline"
	"tycodec/internal/ui"
)

type compileOutcome struct {
	results []*driver.UnitResult
	err     error
}

// compileWithUI runs the units while a progress view renders their events.
func compileWithUI(ctx context.Context, title string, units []driver.Unit, opts driver.Options) ([]*driver.UnitResult, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan compileOutcome, 1)

	go func() {
		opts.Progress = pipeline.ChannelSink{Ch: events}
		res, err := driver.CompileUnits(ctx, units, opts)
		outcomeCh <- compileOutcome{results: res, err: err}
		close(events)
	}()

	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}
	last := pipeline.StageWrite
	if opts.CheckOnly {
		last = pipeline.StageCheck
	}
	model := ui.NewProgressModel(title, names, last, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// после ошибки UI канал больше никто не читает
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
