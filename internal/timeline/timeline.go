// Package timeline decides how long each scene stays on screen so that the
// concatenated visual track covers the narration.
package timeline

import (
	"errors"
	"fmt"
	"math"

	"reelsmith/pkg/sceneplan"
)

// DefaultGapEpsilon is the smallest gap between scenes that is absorbed.
const DefaultGapEpsilon = 0.01

// extendTolerance keeps float summation noise from producing microsecond
// extensions.
const extendTolerance = 1e-6

// ErrNoScenes is returned when no scene with a positive duration remains.
var ErrNoScenes = errors.New("no scenes with a positive duration")

// Entry is one scene's slot on the reconciled timeline.
type Entry struct {
	Index      int                  `json:"index"` // position in the source scene plan
	SceneID    string               `json:"scene_id"`
	VisualType sceneplan.VisualType `json:"visual_type"`
	AssetPath  string               `json:"asset_path"`
	Start      float64              `json:"start"` // planned start
	End        float64              `json:"end"`   // planned end
	Planned    float64              `json:"planned"`
	Lead       float64              `json:"lead"` // silence before the first scene, first entry only
	Gap        float64              `json:"gap"`       // silence before the next scene folded into this one
	Extension  float64              `json:"extension"` // trailing extension to reach the transcript end
	Effective  float64              `json:"effective"`
	Offset     float64              `json:"offset"` // start of this clip on the output timeline
}

// Dropped records a scene that could not be placed.
type Dropped struct {
	Index   int    `json:"index"`
	SceneID string `json:"scene_id"`
	Reason  string `json:"reason"`
}

// Plan is the reconciled timeline.
type Plan struct {
	Entries       []Entry   `json:"entries"`
	Dropped       []Dropped `json:"dropped,omitempty"`
	TranscriptEnd float64   `json:"transcript_end"`
}

// Total returns the summed effective duration.
func (p Plan) Total() float64 {
	total := 0.0
	for _, e := range p.Entries {
		total += e.Effective
	}
	return total
}

// Find returns the entry for a scene id.
func (p Plan) Find(sceneID string) (Entry, bool) {
	for _, e := range p.Entries {
		if e.SceneID == sceneID {
			return e, true
		}
	}
	return Entry{}, false
}

// Options tunes reconciliation.
type Options struct {
	GapEpsilon float64
	// Skip lists source indexes (as in Entry.Index) excluded before planning,
	// typically scenes whose asset could not be used.
	Skip map[int]string
}

// Reconcile computes effective scene durations. A gap larger than the
// epsilon between a scene's end and the next scene's start is folded into
// the earlier scene; silence before the first scene is folded into the
// first one. When the summed durations fall short of transcriptEnd the last
// scene is extended to cover the rest. Scenes with a non-positive planned
// duration and skipped scenes are left out, so the time they would have
// covered is absorbed by the neighbouring scene.
func Reconcile(scenes []sceneplan.Entry, transcriptEnd float64, opts Options) (Plan, error) {
	eps := opts.GapEpsilon
	if eps <= 0 {
		eps = DefaultGapEpsilon
	}

	plan := Plan{TranscriptEnd: transcriptEnd}
	for i, scene := range scenes {
		if reason, ok := opts.Skip[i]; ok {
			plan.Dropped = append(plan.Dropped, Dropped{Index: i, SceneID: scene.SceneID, Reason: reason})
			continue
		}
		planned := scene.Duration()
		if !(planned > 0) || math.IsInf(planned, 0) {
			plan.Dropped = append(plan.Dropped, Dropped{
				Index:   i,
				SceneID: scene.SceneID,
				Reason:  fmt.Sprintf("non-positive duration %.3fs", planned),
			})
			continue
		}
		plan.Entries = append(plan.Entries, Entry{
			Index:      i,
			SceneID:    scene.SceneID,
			VisualType: scene.VisualType,
			AssetPath:  scene.AssetPath,
			Start:      scene.StartTime,
			End:        scene.EndTime,
			Planned:    planned,
			Effective:  planned,
		})
	}
	if len(plan.Entries) == 0 {
		return plan, ErrNoScenes
	}

	// The first clip also covers any silence before it, so every clip
	// starts on screen at its planned start time.
	if lead := plan.Entries[0].Start; lead > eps {
		plan.Entries[0].Lead = lead
		plan.Entries[0].Effective += lead
	}

	for i := 0; i < len(plan.Entries)-1; i++ {
		gap := plan.Entries[i+1].Start - plan.Entries[i].End
		if gap > eps {
			plan.Entries[i].Gap = gap
			plan.Entries[i].Effective += gap
		}
	}

	last := len(plan.Entries) - 1
	if short := transcriptEnd - plan.Total(); short > extendTolerance {
		plan.Entries[last].Extension = short
		plan.Entries[last].Effective += short
	}

	offset := 0.0
	for i := range plan.Entries {
		plan.Entries[i].Offset = offset
		offset += plan.Entries[i].Effective
	}
	return plan, nil
}
