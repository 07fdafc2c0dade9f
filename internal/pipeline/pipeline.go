package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"reelsmith/internal/captions"
	"reelsmith/internal/config"
	"reelsmith/internal/logx"
	"reelsmith/internal/media"
	"reelsmith/internal/paths"
	"reelsmith/internal/render"
	"reelsmith/internal/render/state"
	"reelsmith/internal/timeline"
)

// Inputs names the documents and output of one run.
type Inputs struct {
	PlanPath       string
	TranscriptPath string
	Output         string
	Force          bool
}

// Result summarizes a finished run.
type Result struct {
	RunID        string        `json:"run_id"`
	Output       string        `json:"output"`
	Duration     float64       `json:"duration_s"`
	Timeline     timeline.Plan `json:"timeline"`
	Overlays     int           `json:"overlays"`
	CaptionLines int           `json:"caption_lines"`
	Stages       []StageReport `json:"stages"`
	Warnings     []string      `json:"warnings,omitempty"`
}

// Pipeline assembles a finished video from a scene plan, a transcript and
// their media. Stages run strictly in order and hand over files only.
type Pipeline struct {
	Paths    paths.ProjectPaths
	Config   config.Config
	Runner   media.Runner
	Logger   zerolog.Logger
	Reporter ProgressReporter

	stderr io.Writer
}

// New builds a pipeline for a project.
func New(pp paths.ProjectPaths, cfg config.Config, runner media.Runner, logger zerolog.Logger) *Pipeline {
	if runner == nil {
		runner = media.CmdRunner{}
	}
	return &Pipeline{
		Paths:    pp,
		Config:   cfg,
		Runner:   runner,
		Logger:   logx.Component(logger, "pipeline"),
		Reporter: nopReporter{},
	}
}

// SetStderr mirrors ffmpeg diagnostics to w.
func (p *Pipeline) SetStderr(w io.Writer) {
	p.stderr = w
}

// run carries the state of one invocation. The render and clip caches
// live here and die with it.
type run struct {
	*Pipeline
	id       string
	inputs   Inputs
	docs     Documents
	svc      *render.Service
	state    *state.RunState
	engine   *captions.Engine
	raster   *captions.RenderCache
	clips    *render.ClipCache
	log      zerolog.Logger
	result   Result
	timeline timeline.Plan
}

// Run executes every stage and returns the summary. The project lock is
// held for the whole run.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (Result, error) {
	if err := p.Paths.EnsureMetaDirs(); err != nil {
		return Result{}, err
	}
	lock := flock.New(p.Paths.LockFile)
	locked, err := lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return Result{}, fmt.Errorf("%w (%s)", ErrLocked, p.Paths.LockFile)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			p.Logger.Warn().Err(err).Msg("failed to release project lock")
		}
	}()

	docs, err := LoadDocuments(in.PlanPath, in.TranscriptPath)
	if err != nil {
		return Result{}, err
	}
	if err := docs.CheckVoiceover(); err != nil {
		return Result{}, stageErr(StageAudio, err)
	}

	rs, err := state.Load(p.Paths.StateFile)
	if err != nil {
		return Result{}, err
	}

	r := &run{
		Pipeline: p,
		id:       uuid.NewString(),
		inputs:   in,
		docs:     docs,
		svc:      render.NewService(p.Paths, p.Config, p.Runner, p.Logger),
		state:    rs,
		engine:   captions.NewEngine(p.Paths.Root),
		raster:   captions.NewRenderCache(),
		clips:    render.NewClipCache(),
	}
	defer r.engine.Close()
	if p.stderr != nil {
		r.svc.SetStderr(p.stderr)
	}
	r.log = p.Logger.With().Str("run_id", r.id).Logger()
	r.result.RunID = r.id
	r.state.LastRunID = r.id
	r.reportInputIssues()

	return r.execute(ctx)
}

func (r *run) execute(ctx context.Context) (Result, error) {
	r.log.Info().Str("plan", r.inputs.PlanPath).Int("scenes", len(r.docs.Plan.Scenes)).
		Float64("transcript_end", r.docs.Transcript.End()).Msg("run started")

	visual, err := r.visualStage(ctx)
	if err != nil {
		return r.result, err
	}
	audio, err := r.audioStage(ctx)
	if err != nil {
		return r.result, err
	}
	base, err := r.baseStage(ctx, visual, audio)
	if err != nil {
		return r.result, err
	}
	composited, err := r.fxStage(ctx, base)
	if err != nil {
		return r.result, err
	}
	final, err := r.captionsStage(ctx, composited)
	if err != nil {
		return r.result, err
	}

	if frame := 1 / float64(max(1, r.svc.FPS())); math.Abs(final.Duration-audio.Duration) > frame {
		r.warn("final duration %.3fs differs from voiceover %.3fs by more than one frame", final.Duration, audio.Duration)
	}
	r.result.Output = final.Path
	r.result.Duration = final.Duration
	r.result.Timeline = r.timeline
	r.log.Info().Str("output", final.Path).Float64("duration", final.Duration).Msg("run finished")
	return r.result, nil
}

func (r *run) reportInputIssues() {
	for index, reason := range r.docs.SkipMap() {
		r.warn("scene #%d skipped: %s", index+1, reason)
	}
	for index, issues := range r.docs.SceneIssues {
		for _, issue := range issues {
			if issue.Field == "fx_suggestion.type" {
				r.warn("scene #%d overlay ignored: %s", index+1, issue.Message)
			}
		}
	}
	for _, issue := range r.docs.TranscriptIssues {
		r.warn("transcript: %s", issue.Error())
	}
}

func (r *run) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.log.Warn().Msg(msg)
	r.result.Warnings = append(r.result.Warnings, msg)
}

// checkpoint decides whether stage can be skipped for inputs and reports
// the start of the stage when it must run.
func (r *run) checkpoint(stage string, inputs any) (state.StageAction, string) {
	hash := state.HashInputs(inputs)
	action := state.Decide(r.state, stage, hash, r.inputs.Force)
	r.log.Debug().Str("stage", stage).Str("action", action.Action).Str("reason", action.Reason).Msg("stage decision")
	r.Reporter.Start(stage)
	return action, hash
}

// finish records a completed stage and reports it.
func (r *run) finish(stage, hash string, st state.StageState, status, detail string, started time.Time) error {
	st.InputHash = hash
	st.RunID = r.id
	r.state.Invalidate(StageOrder, stage)
	r.state.Record(stage, st)
	if err := r.state.Save(r.Paths.StateFile); err != nil {
		return stageErr(stage, fmt.Errorf("save run state: %w", err))
	}
	r.complete(StageReport{Stage: stage, Status: status, Detail: detail, Output: st.Output, Elapsed: time.Since(started)})
	return nil
}

func (r *run) complete(report StageReport) {
	r.result.Stages = append(r.result.Stages, report)
	r.Reporter.Complete(report)
}

func (r *run) fail(stage string, err error, started time.Time) error {
	r.complete(StageReport{Stage: stage, Status: StatusFailed, Detail: err.Error(), Elapsed: time.Since(started)})
	return stageErr(stage, err)
}

// outputPath resolves where the final file goes.
func (r *run) outputPath() string {
	if r.inputs.Output != "" {
		if filepath.IsAbs(r.inputs.Output) {
			return r.inputs.Output
		}
		return r.Paths.ResolveInput(r.inputs.Output)
	}
	return r.Paths.DefaultOutput(r.docs.Plan.VideoProjectID)
}
