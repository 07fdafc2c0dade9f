package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"reelsmith/internal/pipeline"
)

func TestStageModelRows(t *testing.T) {
	m := NewStageModel("assemble demo")
	if len(m.rows) != len(pipeline.StageOrder) {
		t.Fatalf("expected %d rows, got %d", len(pipeline.StageOrder), len(m.rows))
	}
	for i, stage := range pipeline.StageOrder {
		if m.rows[i].Fields[0] != stage || m.rows[i].Fields[1] != "pending" {
			t.Errorf("row %d = %v", i, m.rows[i].Fields)
		}
	}
}

func TestStageReporterUpdatesRows(t *testing.T) {
	m := NewStageModel("")
	var msgs []tea.Msg
	r := NewStageReporter(func(msg tea.Msg) { msgs = append(msgs, msg) })

	r.Start(pipeline.StageVisual)
	r.Complete(pipeline.StageReport{Stage: pipeline.StageVisual, Status: pipeline.StatusDegraded, Detail: "2 scenes, 1 skipped", Elapsed: 1500 * time.Millisecond})
	r.Start(pipeline.StageAudio)

	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(ProgressModel)
	}

	visual := m.rows[0].Fields
	if visual[1] != "degraded" || visual[2] != "2 scenes, 1 skipped" || visual[3] != "1.5s" {
		t.Errorf("unexpected visual row %v", visual)
	}
	if m.rows[1].Fields[1] != "running" {
		t.Errorf("expected audio running, got %v", m.rows[1].Fields)
	}
	processed, total := m.progressCounts()
	if processed != 1 || total != 5 {
		t.Errorf("progressCounts = %d/%d, want 1/5", processed, total)
	}
}

func TestRowUpdateMsgUnknownKey(t *testing.T) {
	m := NewProgressModel("test", []Column{{Header: "STATUS", Width: 10}})
	m.AddRow("row:001", []string{"pending"})

	updated, _ := m.Update(RowUpdateMsg{Key: "row:999", Fields: map[string]string{"STATUS": "done"}})
	m = updated.(ProgressModel)

	if m.rows[0].Fields[0] != "pending" {
		t.Errorf("expected STATUS unchanged, got %q", m.rows[0].Fields[0])
	}
}

func TestPlainReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainReporter(&buf)
	r.Start(pipeline.StageBase)
	r.Complete(pipeline.StageReport{Stage: pipeline.StageBase, Status: pipeline.StatusCached, Elapsed: 20 * time.Millisecond})

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected one line, got %q", out)
	}
	for _, want := range []string{"base", "cached", "20ms", "-"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestWorkDoneAndErrorMsgs(t *testing.T) {
	m := NewStageModel("")
	updated, cmd := m.Update(WorkDoneMsg{})
	if !updated.(ProgressModel).Done() || cmd == nil {
		t.Error("WorkDoneMsg should finish the model and quit")
	}

	m = NewStageModel("")
	updated, cmd = m.Update(ErrorMsg{Err: errors.New("boom")})
	m = updated.(ProgressModel)
	if !m.Done() || m.Err() == nil || cmd == nil {
		t.Error("ErrorMsg should record the error and quit")
	}
	if !strings.Contains(m.View(), "Error: boom") {
		t.Errorf("error not shown in final view: %q", m.View())
	}
}

func TestSpinnerTick(t *testing.T) {
	m := NewStageModel("")
	updated, cmd := m.Update(m.spinner.Tick())
	m = updated.(ProgressModel)
	if m.tick != 1 {
		t.Errorf("expected tick=1, got %d", m.tick)
	}
	if cmd == nil {
		t.Error("expected the spinner to schedule its next frame")
	}

	updated, _ = m.Update(WorkDoneMsg{})
	m = updated.(ProgressModel)
	if _, cmd := m.Update(m.spinner.Tick()); cmd != nil {
		t.Error("expected no tick command after done")
	}
}

func TestViewFooter(t *testing.T) {
	m := NewStageModel("assemble demo")
	view := m.View()
	for _, want := range []string{"assemble demo", "STAGE", "STATUS", "visual", "captions", "Assembling 0/5"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}

	updated, _ := m.Update(WorkDoneMsg{})
	if strings.Contains(updated.(ProgressModel).View(), "Assembling") {
		t.Error("footer should disappear when done")
	}
}

func TestCtrlC(t *testing.T) {
	m := NewStageModel("")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !updated.(ProgressModel).Done() || cmd == nil {
		t.Error("expected ctrl+c to quit")
	}
}

func TestFormatElapsed(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "",
		250 * time.Millisecond:  "250ms",
		1500 * time.Millisecond: "1.5s",
		42 * time.Second:        "42s",
		125 * time.Second:       "2m05s",
	}
	for d, want := range cases {
		if got := formatElapsed(d); got != want {
			t.Errorf("formatElapsed(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short", 10, "short"},
		{"a longer string here", 10, "a longe..."},
		{"abcd", 3, "abc"},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateWithEllipsis(tt.input, tt.max); got != tt.want {
			t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}

func TestMarqueeText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		tick  int
		want  string
	}{
		{"short", 10, 0, "short"},
		{"hello world here", 5, 1, "ello "},
		{"abcdef", 4, 6, "   a"},
	}
	for _, tt := range tests {
		if got := marqueeText(tt.text, tt.width, tt.tick); got != tt.want {
			t.Errorf("marqueeText(%q, %d, %d) = %q, want %q", tt.text, tt.width, tt.tick, got, tt.want)
		}
	}
}

func TestDetectModeNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	if DetectMode(&buf, false, true) != ModeJSON {
		t.Error("json flag should win")
	}
	if DetectMode(&buf, false, false) != ModePlain {
		t.Error("a buffer is not a terminal")
	}
}
