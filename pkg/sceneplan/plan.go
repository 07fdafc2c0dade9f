package sceneplan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// VisualType identifies where a scene's footage came from.
type VisualType string

const (
	VisualAvatar     VisualType = "AVATAR"
	VisualStockVideo VisualType = "STOCK_VIDEO"
	VisualStockImage VisualType = "STOCK_IMAGE"
)

// IsStill reports whether the visual type is rendered from a still image.
func (v VisualType) IsStill() bool {
	return v == VisualStockImage
}

// Valid reports whether v is one of the known visual types.
func (v VisualType) Valid() bool {
	switch v {
	case VisualAvatar, VisualStockVideo, VisualStockImage:
		return true
	}
	return false
}

// FX types recognised by the compositor.
const (
	FXTextOverlayFade  = "TEXT_OVERLAY_FADE"
	FXTextOverlayScale = "TEXT_OVERLAY_SCALE"
)

// Plan is the scene plan document produced by the planning collaborator.
type Plan struct {
	VideoProjectID      string  `json:"video_project_id" jsonschema:"description=Identifier of the video project"`
	MasterVOPath        string  `json:"master_vo_path" jsonschema:"description=Path to the narrated voiceover track"`
	BackgroundMusicPath string  `json:"background_music_path,omitempty" jsonschema:"description=Optional background music track"`
	Scenes              []Entry `json:"scene_plans"`

	// BaseDir is the directory relative asset paths resolve against.
	BaseDir string `json:"-"`
}

// Entry describes a single scene of the plan.
type Entry struct {
	SceneID      string        `json:"scene_id"`
	StartTime    float64       `json:"start_time" jsonschema:"minimum=0"`
	EndTime      float64       `json:"end_time" jsonschema:"minimum=0"`
	VisualType   VisualType    `json:"visual_type" jsonschema:"enum=AVATAR,enum=STOCK_VIDEO,enum=STOCK_IMAGE"`
	AssetPath    string        `json:"asset_path"`
	FXSuggestion *FXSuggestion `json:"fx_suggestion,omitempty"`
}

// Duration returns the planned on-screen duration of the scene.
func (e Entry) Duration() float64 {
	return e.EndTime - e.StartTime
}

// FXSuggestion requests a timed text overlay for a scene.
type FXSuggestion struct {
	Type        string   `json:"type" jsonschema:"enum=TEXT_OVERLAY_FADE,enum=TEXT_OVERLAY_SCALE"`
	TextContent string   `json:"text_content"`
	Params      FXParams `json:"params"`
}

// FXParams carries the optional knobs of an FX suggestion. Unset values fall
// back to the compositor defaults.
type FXParams struct {
	FontProps  FontProps `json:"font_props"`
	Position   Position  `json:"position"`
	StartScale *float64  `json:"start_scale,omitempty"`
	EndScale   *float64  `json:"end_scale,omitempty"`
	FadeIn     *float64  `json:"fade_in,omitempty"`
	FadeOut    *float64  `json:"fade_out,omitempty"`
	Duration   *float64  `json:"duration,omitempty"`
	Fade       *bool     `json:"fade,omitempty"`
	Transform  string    `json:"transform,omitempty" jsonschema:"enum=,enum=uppercase,enum=lowercase,enum=title"`
}

// FontProps overrides the text style of an overlay.
type FontProps struct {
	Font        string `json:"font,omitempty"`
	FontSize    int    `json:"font_size,omitempty"`
	FontColor   string `json:"font_color,omitempty"`
	StrokeWidth *int   `json:"stroke_width,omitempty"`
	StrokeColor string `json:"stroke_color,omitempty"`
}

// Position is either a named anchor ("center", "top", "bottom",
// "upper_third", "lower_third") or an explicit pixel center.
type Position struct {
	Anchor string
	X, Y   float64
	Pixel  bool
}

// UnmarshalJSON accepts a string anchor, a two-element [x, y] array or an
// {"x": .., "y": ..} object.
func (p *Position) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Position{}
		return nil
	}
	switch data[0] {
	case '"':
		var anchor string
		if err := json.Unmarshal(data, &anchor); err != nil {
			return err
		}
		*p = Position{Anchor: strings.ToLower(strings.TrimSpace(anchor))}
		return nil
	case '[':
		var pair []float64
		if err := json.Unmarshal(data, &pair); err != nil {
			return fmt.Errorf("position: %w", err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("position: expected [x, y], got %d values", len(pair))
		}
		*p = Position{X: pair[0], Y: pair[1], Pixel: true}
		return nil
	case '{':
		var obj struct {
			X *float64 `json:"x"`
			Y *float64 `json:"y"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("position: %w", err)
		}
		if obj.X == nil || obj.Y == nil {
			return errors.New("position: object requires x and y")
		}
		*p = Position{X: *obj.X, Y: *obj.Y, Pixel: true}
		return nil
	}
	return fmt.Errorf("position: unsupported value %s", string(data))
}

// MarshalJSON writes the anchor form when set, otherwise [x, y].
func (p Position) MarshalJSON() ([]byte, error) {
	if p.Pixel {
		return json.Marshal([]float64{p.X, p.Y})
	}
	if p.Anchor == "" {
		return []byte("null"), nil
	}
	return json.Marshal(p.Anchor)
}

// LoadPlan reads and validates a scene plan document. Relative asset paths
// are resolved against the plan file's directory. When validation fails the
// parsed plan is still returned alongside a ValidationErrors value.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read plan: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Plan{}, errors.New("plan file is empty")
	}

	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return Plan{}, fmt.Errorf("parse plan: %w", err)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		base = filepath.Dir(path)
	}
	plan.BaseDir = base

	if errs := plan.Validate(); len(errs) > 0 {
		return plan, errs
	}
	return plan, nil
}

// Validate checks the structural invariants of the plan: a voiceover is
// named, scenes are ordered by start time, every scene has a positive
// duration and scene ids are unique.
func (p Plan) Validate() ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(p.MasterVOPath) == "" {
		errs = append(errs, ValidationError{Item: "plan", Field: "master_vo_path", Message: "is required"})
	}
	if len(p.Scenes) == 0 {
		errs = append(errs, ValidationError{Item: "plan", Field: "scene_plans", Message: "must contain at least one scene"})
	}

	seen := make(map[string]int, len(p.Scenes))
	for i, scene := range p.Scenes {
		label := sceneLabel(i+1, scene.SceneID)
		if strings.TrimSpace(scene.SceneID) == "" {
			errs = append(errs, ValidationError{Scene: i + 1, Item: label, Field: "scene_id", Message: "is required"})
		} else if prev, ok := seen[scene.SceneID]; ok {
			errs = append(errs, ValidationError{Scene: i + 1, Item: label, Field: "scene_id", Message: fmt.Sprintf("duplicates scene #%d", prev)})
		} else {
			seen[scene.SceneID] = i + 1
		}
		if scene.StartTime < 0 {
			errs = append(errs, ValidationError{Scene: i + 1, Item: label, Field: "start_time", Message: "must be >= 0"})
		}
		if scene.EndTime <= scene.StartTime {
			errs = append(errs, ValidationError{Scene: i + 1, Item: label, Field: "end_time", Message: "must be greater than start_time"})
		}
		if i > 0 && scene.StartTime < p.Scenes[i-1].StartTime {
			errs = append(errs, ValidationError{Scene: i + 1, Item: label, Field: "start_time", Message: "scenes must be ordered by start_time"})
		}
		if scene.VisualType != "" && !scene.VisualType.Valid() {
			errs = append(errs, ValidationError{Scene: i + 1, Item: label, Field: "visual_type", Message: fmt.Sprintf("unknown value %q", scene.VisualType)})
		}
		if fx := scene.FXSuggestion; fx != nil {
			switch fx.Type {
			case FXTextOverlayFade, FXTextOverlayScale:
			default:
				errs = append(errs, ValidationError{Scene: i + 1, Item: label, Field: "fx_suggestion.type", Message: fmt.Sprintf("unknown value %q", fx.Type)})
			}
		}
	}

	return errs
}

// ResolvePath returns value as an absolute path, resolving relative paths
// against the plan's base directory.
func (p Plan) ResolvePath(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if filepath.IsAbs(value) || p.BaseDir == "" {
		return filepath.Clean(value)
	}
	return filepath.Join(p.BaseDir, value)
}

// VoiceoverPath returns the resolved voiceover path.
func (p Plan) VoiceoverPath() string {
	return p.ResolvePath(p.MasterVOPath)
}

// MusicPath returns the resolved background music path, or "" when absent.
func (p Plan) MusicPath() string {
	return p.ResolvePath(p.BackgroundMusicPath)
}
