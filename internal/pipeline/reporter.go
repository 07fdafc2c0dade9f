package pipeline

import "time"

// Stage names in execution order.
const (
	StageVisual   = "visual"
	StageAudio    = "audio"
	StageBase     = "base"
	StageFX       = "fx"
	StageCaptions = "captions"
)

// StageOrder lists the stages in the order they run.
var StageOrder = []string{StageVisual, StageAudio, StageBase, StageFX, StageCaptions}

// Stage outcome statuses.
const (
	StatusRunning  = "running"
	StatusDone     = "done"
	StatusCached   = "cached"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
)

// StageReport describes how a stage ended.
type StageReport struct {
	Stage   string        `json:"stage"`
	Status  string        `json:"status"`
	Detail  string        `json:"detail,omitempty"`
	Output  string        `json:"output,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// ProgressReporter receives stage progress. Implementations must not block.
type ProgressReporter interface {
	Start(stage string)
	Complete(report StageReport)
}

type nopReporter struct{}

func (nopReporter) Start(string) {}
func (nopReporter) Complete(StageReport) {}
