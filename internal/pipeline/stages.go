package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"reelsmith/internal/captions"
	"reelsmith/internal/config"
	"reelsmith/internal/fx"
	"reelsmith/internal/render"
	"reelsmith/internal/render/state"
	"reelsmith/internal/timeline"
	"reelsmith/pkg/sceneplan"
)

type visualInputs struct {
	Scenes        []sceneplan.Entry       `json:"scenes"`
	Assets        []state.FileFingerprint `json:"assets"`
	TranscriptEnd float64                 `json:"transcript_end"`
	Skip          map[int]string          `json:"skip"`
	Video         config.VideoConfig      `json:"video"`
	GapEpsilon    float64                 `json:"gap_epsilon"`
}

func (r *run) visualStage(ctx context.Context) (render.Clip, error) {
	started := time.Now()
	output := r.Paths.StagePath("visual.mp4")

	inputs := visualInputs{
		Scenes:        r.docs.Plan.Scenes,
		TranscriptEnd: r.docs.Transcript.End(),
		Skip:          r.docs.SkipMap(),
		Video:         r.Config.Video,
		GapEpsilon:    r.Config.Timeline.GapEpsilonSec,
	}
	for _, scene := range r.docs.Plan.Scenes {
		inputs.Assets = append(inputs.Assets, state.Fingerprint(r.docs.Plan.ResolvePath(scene.AssetPath)))
	}

	action, hash := r.checkpoint(StageVisual, inputs)
	if action.Action == state.ActionSkip {
		if plan, err := r.docs.Timeline(r.Config, action.Prior.Skipped); err == nil {
			r.timeline = plan
			r.complete(StageReport{Stage: StageVisual, Status: StatusCached, Detail: action.Reason, Output: action.Prior.Output, Elapsed: time.Since(started)})
			return r.cachedClip(action.Prior), nil
		}
	}

	// A scene whose clip cannot be produced is dropped and the timeline
	// re-planned, so its time folds into the neighbouring scenes. Clips
	// already rendered for unchanged durations come from the clip cache.
	failed := map[int]string{}
	var clips []render.Clip
	for {
		plan, err := r.docs.Timeline(r.Config, failed)
		if err != nil {
			if errors.Is(err, timeline.ErrNoScenes) {
				err = ErrNoVisualContent
			}
			return render.Clip{}, r.fail(StageVisual, err, started)
		}

		clips = clips[:0]
		dropped := -1
		for _, entry := range plan.Entries {
			source := r.docs.Plan.ResolvePath(entry.AssetPath)
			clip, ok := r.svc.TransformClip(ctx, render.ClipRequest{
				SceneID:  entry.SceneID,
				Index:    entry.Index,
				Source:   source,
				Kind:     clipKind(entry.VisualType, source),
				Duration: entry.Effective,
			}, r.clips)
			if !ok {
				if err := ctx.Err(); err != nil {
					return render.Clip{}, r.fail(StageVisual, err, started)
				}
				dropped = entry.Index
				break
			}
			clips = append(clips, clip)
		}
		if dropped < 0 {
			r.timeline = plan
			break
		}
		failed[dropped] = "clip could not be produced"
		r.warn("scene %q skipped: clip could not be produced", r.docs.Plan.Scenes[dropped].SceneID)
	}

	visual, err := r.svc.ConcatClips(ctx, clips, output)
	if err != nil {
		return render.Clip{}, r.fail(StageVisual, err, started)
	}

	skipped := map[int]string{}
	for _, d := range r.timeline.Dropped {
		skipped[d.Index] = d.Reason
	}
	status := StatusDone
	if len(r.timeline.Dropped) > 0 {
		status = StatusDegraded
	}
	detail := fmt.Sprintf("%d scenes, %d skipped, %.2fs", len(r.timeline.Entries), len(r.timeline.Dropped), visual.Duration)
	st := state.StageState{Output: visual.Path, DurationS: visual.Duration, Skipped: skipped}
	if err := r.finish(StageVisual, hash, st, status, detail, started); err != nil {
		return render.Clip{}, err
	}
	return visual, nil
}

type audioInputs struct {
	Voiceover state.FileFingerprint `json:"voiceover"`
	Music     state.FileFingerprint `json:"music"`
	Mix       config.MusicConfig    `json:"mix"`
	Encode    config.AudioConfig    `json:"encode"`
}

func (r *run) audioStage(ctx context.Context) (render.AudioTrack, error) {
	started := time.Now()
	voiceover := r.docs.Plan.VoiceoverPath()
	music := r.docs.Plan.MusicPath()
	inputs := audioInputs{
		Voiceover: state.Fingerprint(voiceover),
		Music:     state.Fingerprint(music),
		Mix:       r.Config.Music,
		Encode:    r.Config.Audio,
	}

	action, hash := r.checkpoint(StageAudio, inputs)
	if action.Action == state.ActionSkip && action.Prior.DurationS > 0 {
		r.complete(StageReport{Stage: StageAudio, Status: StatusCached, Detail: action.Reason, Output: action.Prior.Output, Elapsed: time.Since(started)})
		return render.AudioTrack{Path: action.Prior.Output, Duration: action.Prior.DurationS, Mixed: action.Prior.Output != voiceover}, nil
	}

	track, err := r.svc.MixAudio(ctx, voiceover, music, r.Paths.StagePath("audio.m4a"))
	if err != nil {
		return render.AudioTrack{}, r.fail(StageAudio, fmt.Errorf("%w: %v", ErrNoAudio, err), started)
	}

	status, detail := StatusDone, "voiceover only"
	switch {
	case track.Mixed:
		detail = "voiceover + music"
	case music != "":
		status, detail = StatusDegraded, "music unusable, voiceover only"
		r.warn("background music %s could not be used", filepath.Base(music))
	}
	detail = fmt.Sprintf("%s, %.2fs", detail, track.Duration)
	if err := r.finish(StageAudio, hash, state.StageState{Output: track.Path, DurationS: track.Duration}, status, detail, started); err != nil {
		return render.AudioTrack{}, err
	}
	return track, nil
}

type baseInputs struct {
	Visual        state.FileFingerprint `json:"visual"`
	Audio         state.FileFingerprint `json:"audio"`
	AudioDuration float64               `json:"audio_duration"`
	Video         config.VideoConfig    `json:"video"`
	Encode        config.AudioConfig    `json:"encode"`
}

func (r *run) baseStage(ctx context.Context, visual render.Clip, audio render.AudioTrack) (render.Clip, error) {
	started := time.Now()
	inputs := baseInputs{
		Visual:        state.Fingerprint(visual.Path),
		Audio:         state.Fingerprint(audio.Path),
		AudioDuration: audio.Duration,
		Video:         r.Config.Video,
		Encode:        r.Config.Audio,
	}
	action, hash := r.checkpoint(StageBase, inputs)
	if action.Action == state.ActionSkip {
		r.complete(StageReport{Stage: StageBase, Status: StatusCached, Detail: action.Reason, Output: action.Prior.Output, Elapsed: time.Since(started)})
		return r.cachedClip(action.Prior), nil
	}

	base, err := r.svc.AssembleBase(ctx, visual, audio, r.Paths.StagePath("base.mp4"))
	if err != nil {
		return render.Clip{}, r.fail(StageBase, err, started)
	}
	detail := fmt.Sprintf("%.2fs", base.Duration)
	if err := r.finish(StageBase, hash, state.StageState{Output: base.Path, DurationS: base.Duration}, StatusDone, detail, started); err != nil {
		return render.Clip{}, err
	}
	return base, nil
}

type fxInputs struct {
	Base     state.FileFingerprint   `json:"base"`
	Overlays []fx.Overlay            `json:"overlays"`
	Fonts    []state.FileFingerprint `json:"fonts"`
	FPS      int                     `json:"fps"`
}

func (r *run) fxStage(ctx context.Context, base render.Clip) (render.Clip, error) {
	started := time.Now()
	overlays, defaults := r.planOverlays()
	r.result.Overlays = len(overlays)

	inputs := fxInputs{Base: state.Fingerprint(base.Path), Overlays: overlays, FPS: r.svc.FPS()}
	for _, o := range overlays {
		inputs.Fonts = append(inputs.Fonts, r.fontFingerprint(o.Style.Font))
	}
	action, hash := r.checkpoint(StageFX, inputs)
	if action.Action == state.ActionSkip {
		r.complete(StageReport{Stage: StageFX, Status: StatusCached, Detail: action.Reason, Output: action.Prior.Output, Elapsed: time.Since(started)})
		return r.cachedClip(action.Prior), nil
	}

	rasterizer := &fx.Rasterizer{
		Engine:   r.engine,
		Cache:    r.raster,
		Dir:      r.Paths.OverlaysDir,
		Frame:    r.svc.Target(),
		Defaults: defaults,
	}
	layers, skips := rasterizer.Rasterize(overlays)
	for _, s := range skips {
		r.warn("overlay for scene %q skipped: %s", s.SceneID, s.Reason)
	}
	r.result.Overlays = len(layers)

	out := r.svc.ApplyOverlays(ctx, base, layers, r.Paths.StagePath("fx.mp4"))
	if err := ctx.Err(); err != nil {
		return render.Clip{}, r.fail(StageFX, err, started)
	}

	status := StatusDone
	detail := fmt.Sprintf("%d overlays", len(layers))
	if len(skips) > 0 {
		status = StatusDegraded
	}
	if len(layers) > 0 && out.Path == base.Path {
		status, detail = StatusDegraded, "composite failed, base passed through"
		r.warn("text overlays could not be composited")
		r.result.Overlays = 0
	}
	if err := r.finish(StageFX, hash, state.StageState{Output: out.Path, DurationS: out.Duration}, status, detail, started); err != nil {
		return render.Clip{}, err
	}
	return out, nil
}

// planOverlays plans overlays for the scenes that made it onto the
// timeline. Overlay problems are warnings.
func (r *run) planOverlays() ([]fx.Overlay, fx.Defaults) {
	if !r.Config.FX.EnabledValue() {
		return nil, fx.Defaults{}
	}
	defaults, err := fx.DefaultsFromConfig(r.Config)
	if err != nil {
		r.warn("text overlays disabled: %v", err)
		return nil, fx.Defaults{}
	}

	dropped := map[int]bool{}
	for _, d := range r.timeline.Dropped {
		dropped[d.Index] = true
	}
	entries := r.docs.Plan.Scenes
	planned, skips := fx.Plan(entries, r.svc.Target(), defaults)
	for _, s := range skips {
		r.warn("overlay for scene %q skipped: %s", s.SceneID, s.Reason)
	}
	var overlays []fx.Overlay
	for _, o := range planned {
		if dropped[o.Index] {
			continue
		}
		overlays = append(overlays, o)
	}
	return overlays, defaults
}

type captionInputs struct {
	Input    state.FileFingerprint `json:"input"`
	Words    sceneplan.Transcript  `json:"words"`
	Captions config.CaptionsConfig `json:"captions"`
	Video    config.VideoConfig    `json:"video"`
	Font     state.FileFingerprint `json:"font"`
	Output   string                `json:"output"`
}

func (r *run) captionsStage(ctx context.Context, in render.Clip) (render.Clip, error) {
	started := time.Now()
	output := r.outputPath()
	inputs := captionInputs{
		Input:    state.Fingerprint(in.Path),
		Words:    r.docs.Transcript,
		Captions: r.Config.Captions,
		Video:    r.Config.Video,
		Font:     r.fontFingerprint(r.Config.Captions.Style.Font),
		Output:   output,
	}
	action, hash := r.checkpoint(StageCaptions, inputs)
	if action.Action == state.ActionSkip {
		r.complete(StageReport{Stage: StageCaptions, Status: StatusCached, Detail: action.Reason, Output: action.Prior.Output, Elapsed: time.Since(started)})
		return r.cachedClip(action.Prior), nil
	}

	status := StatusDone
	var (
		frames []render.CaptionFrame
		blank  string
	)
	if r.Config.Captions.EnabledValue() {
		opts, err := captions.OptionsFromConfig(r.Config)
		if err != nil {
			status = StatusDegraded
			r.warn("captions disabled: %v", err)
		} else {
			builder := captions.NewBuilder(r.engine, r.raster, opts, r.log)
			track, err := builder.Build(ctx, r.docs.Transcript, r.Paths.CaptionsDir)
			if err != nil {
				return render.Clip{}, r.fail(StageCaptions, err, started)
			}
			r.result.CaptionLines = len(track.Lines)
			blank = track.Blank
			for _, f := range track.Frames {
				frames = append(frames, render.CaptionFrame{Image: f.Image, Start: f.Start, End: f.End})
			}
		}
	}

	final, err := r.svc.BurnCaptions(ctx, in, frames, blank, output)
	if err != nil {
		return render.Clip{}, r.fail(StageCaptions, err, started)
	}
	detail := fmt.Sprintf("%d lines, %d frames", r.result.CaptionLines, len(frames))
	if err := r.finish(StageCaptions, hash, state.StageState{Output: final.Path, DurationS: final.Duration}, status, detail, started); err != nil {
		return render.Clip{}, err
	}
	return final, nil
}

func (r *run) cachedClip(st state.StageState) render.Clip {
	return render.Clip{Path: st.Output, Duration: st.DurationS, Size: r.svc.Target(), FPS: r.svc.FPS()}
}

func (r *run) fontFingerprint(font string) state.FileFingerprint {
	font = strings.TrimSpace(font)
	if font == "" {
		return state.FileFingerprint{}
	}
	if !filepath.IsAbs(font) {
		font = filepath.Join(r.Paths.Root, font)
	}
	return state.Fingerprint(font)
}
