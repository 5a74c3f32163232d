package ui

import (
	"testing"

	"github.com/mattn/go-runewidth"

	"tycodec/internal/pipeline"
)

func TestApplyEventTracksUnits(t *testing.T) {
	m := NewProgressModel("gen", []string{"a", "b", "c"}, pipeline.StageWrite, nil).(*progressModel)

	events := []pipeline.Event{
		{Unit: "a", Stage: pipeline.StageLoad, Status: pipeline.StatusWorking},
		{Unit: "a", Stage: pipeline.StageLoad, Status: pipeline.StatusDone},
		{Unit: "b", Stage: pipeline.StageWrite, Status: pipeline.StatusCached},
		{Unit: "c", Stage: pipeline.StageCheck, Status: pipeline.StatusError},
		{Unit: "c", Stage: pipeline.StageGenerate, Status: pipeline.StatusWorking},
		{Unit: "unknown", Stage: pipeline.StageLoad, Status: pipeline.StatusWorking},
	}
	for _, ev := range events {
		m.applyEvent(ev)
	}

	want := []string{"loading", "cached", "error"}
	for i, item := range m.items {
		if item.status != want[i] {
			t.Fatalf("unit %s: status %q, want %q", item.name, item.status, want[i])
		}
	}
	// a: 0 из 4 этапов, b и c завершены
	if got := m.percent(); got != 2.0/3.0 {
		t.Fatalf("percent = %v", got)
	}

	m.applyEvent(pipeline.Event{Unit: "a", Stage: pipeline.StageWrite, Status: pipeline.StatusDone})
	if !m.items[0].finished || m.percent() != 1.0 {
		t.Fatalf("unit a should be finished")
	}
}

func TestProgressFromStage(t *testing.T) {
	tests := []struct {
		stage, last pipeline.Stage
		want        float64
	}{
		{pipeline.StageLoad, pipeline.StageWrite, 0},
		{pipeline.StageGenerate, pipeline.StageWrite, 0.5},
		{pipeline.StageCheck, pipeline.StageCheck, 0.5},
		{"", pipeline.StageWrite, 0},
	}
	for _, tt := range tests {
		if got := progressFromStage(tt.stage, tt.last); got != tt.want {
			t.Errorf("progressFromStage(%q, %q) = %v, want %v", tt.stage, tt.last, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"abcdefgh", 6, "abc..."},
		{"abc", 6, "abc"},
		{"abcdef", 3, "abc"},
		{"abcdef", 0, "abcdef"},
		// широкие символы занимают две колонки
		{"日本語テキスト", 7, "日本..."},
	}
	for _, tc := range cases {
		got := truncate(tc.in, tc.width)
		if got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
		if tc.width > 0 && runewidth.StringWidth(got) > tc.width {
			t.Fatalf("truncate(%q, %d) is %d columns wide", tc.in, tc.width, runewidth.StringWidth(got))
		}
	}
}
