package pipeline

import (
	"errors"
	"fmt"
	"os"

	"reelsmith/internal/config"
	"reelsmith/internal/media"
	"reelsmith/internal/timeline"
	"reelsmith/pkg/sceneplan"
)

// Documents are the loaded input documents of a run together with the
// problems that only degrade it.
type Documents struct {
	Plan       sceneplan.Plan
	Transcript sceneplan.Transcript
	// SceneIssues maps a 0-based scene index to its validation problems.
	SceneIssues map[int]sceneplan.ValidationErrors
	// TranscriptIssues are ordering problems in the transcript.
	TranscriptIssues sceneplan.ValidationErrors
}

// LoadDocuments reads the scene plan and transcript. Problems with the plan
// as a whole and unreadable files are returned as errors; problems confined
// to one scene are kept in SceneIssues so that scene can be skipped.
func LoadDocuments(planPath, transcriptPath string) (Documents, error) {
	var docs Documents

	plan, err := sceneplan.LoadPlan(planPath)
	if err != nil {
		var verrs sceneplan.ValidationErrors
		if !errors.As(err, &verrs) {
			return Documents{}, err
		}
		if doc := verrs.DocumentLevel(); len(doc) > 0 {
			return Documents{}, fmt.Errorf("scene plan: %w", doc)
		}
		docs.SceneIssues = map[int]sceneplan.ValidationErrors{}
		for i := range plan.Scenes {
			if issues := verrs.ForScene(i + 1); len(issues) > 0 {
				docs.SceneIssues[i] = issues
			}
		}
	}
	docs.Plan = plan

	words, err := sceneplan.LoadTranscript(transcriptPath)
	if err != nil {
		var verrs sceneplan.ValidationErrors
		if !errors.As(err, &verrs) {
			return Documents{}, err
		}
		docs.TranscriptIssues = verrs
	}
	docs.Transcript = words
	return docs, nil
}

// CheckVoiceover verifies the voiceover file is present.
func (d Documents) CheckVoiceover() error {
	path := d.Plan.VoiceoverPath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %v", ErrNoAudio, err)
	}
	return nil
}

// SkipMap returns the scenes that must be left out before planning. Issues
// limited to the FX suggestion only cost the scene its overlay.
func (d Documents) SkipMap() map[int]string {
	skip := map[int]string{}
	for index, issues := range d.SceneIssues {
		for _, issue := range issues {
			if issue.Field == "fx_suggestion.type" {
				continue
			}
			skip[index] = issue.Error()
			break
		}
	}
	return skip
}

// Timeline reconciles the plan against the transcript with the configured
// gap tolerance and any extra skipped scenes.
func (d Documents) Timeline(cfg config.Config, extra map[int]string) (timeline.Plan, error) {
	skip := d.SkipMap()
	for k, v := range extra {
		skip[k] = v
	}
	return timeline.Reconcile(d.Plan.Scenes, d.Transcript.End(), timeline.Options{
		GapEpsilon: cfg.Timeline.GapEpsilonSec,
		Skip:       skip,
	})
}

// clipKind maps a scene's visual type onto the asset kind to decode.
func clipKind(v sceneplan.VisualType, path string) media.Kind {
	switch {
	case v.IsStill():
		return media.KindImage
	case v == sceneplan.VisualAvatar, v == sceneplan.VisualStockVideo:
		return media.KindVideo
	}
	return media.KindFromExtension(path)
}
