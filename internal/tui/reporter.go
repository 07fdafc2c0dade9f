package tui

import (
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"reelsmith/internal/pipeline"
)

// Stage table columns.
const (
	ColStage   = "STAGE"
	ColStatus  = "STATUS"
	ColDetail  = "DETAIL"
	ColElapsed = "ELAPSED"
)

// StageColumns is the layout of the assemble progress table.
var StageColumns = []Column{
	{Header: ColStage, Width: 9},
	{Header: ColStatus, Width: 9},
	{Header: ColDetail, Width: 44},
	{Header: ColElapsed, Width: 7},
}

// NewStageModel returns a progress model with one pending row per stage.
func NewStageModel(title string) ProgressModel {
	m := NewProgressModel(title, StageColumns)
	for _, stage := range pipeline.StageOrder {
		m.AddRow(stage, []string{stage, "pending", "", ""})
	}
	return m
}

// StageReporter forwards pipeline progress to a bubbletea program.
type StageReporter struct {
	send func(tea.Msg)
}

// NewStageReporter wraps a send function, typically the one handed to a
// RunWithWork callback.
func NewStageReporter(send func(tea.Msg)) *StageReporter {
	return &StageReporter{send: send}
}

// Start implements pipeline.ProgressReporter.
func (r *StageReporter) Start(stage string) {
	r.send(RowUpdateMsg{Key: stage, Fields: map[string]string{ColStatus: pipeline.StatusRunning}})
}

// Complete implements pipeline.ProgressReporter.
func (r *StageReporter) Complete(report pipeline.StageReport) {
	r.send(RowUpdateMsg{Key: report.Stage, Fields: map[string]string{
		ColStatus:  report.Status,
		ColDetail:  report.Detail,
		ColElapsed: formatElapsed(report.Elapsed),
	}})
}

// PlainReporter writes one line per finished stage.
type PlainReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPlainReporter returns a reporter writing to out.
func NewPlainReporter(out io.Writer) *PlainReporter {
	return &PlainReporter{out: out}
}

// Start implements pipeline.ProgressReporter.
func (r *PlainReporter) Start(string) {}

// Complete implements pipeline.ProgressReporter.
func (r *PlainReporter) Complete(report pipeline.StageReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%-9s %s  %s  %s\n",
		report.Stage,
		StatusStyle(report.Status).Render(pad(report.Status, 8)),
		formatElapsed(report.Elapsed),
		NonEmptyOrDash(report.Detail))
}
