package fx

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelsmith/internal/captions"
	"reelsmith/internal/config"
	"reelsmith/internal/media"
	"reelsmith/pkg/sceneplan"
)

// maxFadeFraction caps each fade at a third of the overlay duration.
const maxFadeFraction = 1.0 / 3.0

// anchorFractions place named positions as a fraction of the frame height.
var anchorFractions = map[string]float64{
	"top":         0.12,
	"upper_third": 1.0 / 3.0,
	"center":      0.5,
	"lower_third": 2.0 / 3.0,
	"bottom":      0.88,
}

// Defaults fill in whatever an FX suggestion leaves unset.
type Defaults struct {
	Style           captions.Style
	FadeSec         float64
	MaxFadeFraction float64
	StartScale      float64
	EndScale        float64
	Position        string
	MaxWidthRatio   float64
	LineSpacing     int
}

// DefaultsFromConfig resolves the configured overlay defaults.
func DefaultsFromConfig(cfg config.Config) (Defaults, error) {
	style, err := captions.StyleFromConfig(cfg.FX.Style)
	if err != nil {
		return Defaults{}, fmt.Errorf("fx: %w", err)
	}
	return Defaults{
		Style:           style,
		FadeSec:         cfg.FX.FadeSec,
		MaxFadeFraction: cfg.FX.MaxFadeFraction,
		StartScale:      cfg.FX.StartScale,
		EndScale:        cfg.FX.EndScale,
		Position:        cfg.FX.Position,
		MaxWidthRatio:   cfg.FX.MaxWidthRatio,
		LineSpacing:     cfg.Captions.LineSpacing,
	}, nil
}

// Overlay is a planned text overlay on the output timeline.
type Overlay struct {
	SceneID    string
	Index      int
	Kind       string
	Text       string
	Start      float64
	Duration   float64
	FadeIn     float64
	FadeOut    float64
	StartScale float64
	EndScale   float64
	CenterX    float64
	CenterY    float64
	Style      captions.Style
}

// Skip records a suggestion that produced no overlay.
type Skip struct {
	SceneID string
	Reason  string
}

// Plan turns scene FX suggestions into overlays anchored at each scene's
// start time. Scenes without a suggestion are ignored; suggestions that
// cannot be honored are returned as skips.
func Plan(entries []sceneplan.Entry, frame media.Size, defaults Defaults) ([]Overlay, []Skip) {
	var (
		overlays []Overlay
		skips    []Skip
	)
	for i, entry := range entries {
		fx := entry.FXSuggestion
		if fx == nil {
			continue
		}
		o, err := planOne(i, entry, frame, defaults)
		if err != nil {
			skips = append(skips, Skip{SceneID: entry.SceneID, Reason: err.Error()})
			continue
		}
		overlays = append(overlays, o)
	}
	return overlays, skips
}

func planOne(index int, entry sceneplan.Entry, frame media.Size, d Defaults) (Overlay, error) {
	fx := entry.FXSuggestion
	p := fx.Params

	switch fx.Type {
	case sceneplan.FXTextOverlayFade, sceneplan.FXTextOverlayScale:
	default:
		return Overlay{}, fmt.Errorf("unknown fx type %q", fx.Type)
	}

	text := Transform(strings.TrimSpace(fx.TextContent), p.Transform)
	if text == "" {
		return Overlay{}, fmt.Errorf("empty text")
	}

	duration := entry.Duration()
	if p.Duration != nil && *p.Duration > 0 {
		duration = *p.Duration
	}
	if duration <= 0 {
		return Overlay{}, fmt.Errorf("non-positive duration %.3f", duration)
	}

	style, err := applyFontProps(d.Style, p.FontProps)
	if err != nil {
		return Overlay{}, err
	}

	o := Overlay{
		SceneID:    entry.SceneID,
		Index:      index,
		Kind:       fx.Type,
		Text:       text,
		Start:      entry.StartTime,
		Duration:   duration,
		StartScale: 1,
		EndScale:   1,
		Style:      style,
	}
	o.CenterX, o.CenterY = resolvePosition(p.Position, d.Position, frame)

	withFade := fx.Type == sceneplan.FXTextOverlayFade
	if fx.Type == sceneplan.FXTextOverlayScale {
		o.StartScale = floatOr(p.StartScale, d.StartScale, 1)
		o.EndScale = floatOr(p.EndScale, d.EndScale, 1)
		withFade = p.Fade != nil && *p.Fade
	}
	if withFade {
		limit := duration * fraction(d.MaxFadeFraction)
		o.FadeIn = math.Min(floatOr(p.FadeIn, d.FadeSec, 0), limit)
		o.FadeOut = math.Min(floatOr(p.FadeOut, d.FadeSec, 0), limit)
	}
	return o, nil
}

// fraction returns the fade cap as a share of the duration. It never
// exceeds one third, which is also the value when unset.
func fraction(v float64) float64 {
	if v <= 0 {
		return maxFadeFraction
	}
	return math.Min(v, maxFadeFraction)
}

func floatOr(v *float64, fallback, last float64) float64 {
	switch {
	case v != nil && *v > 0:
		return *v
	case fallback > 0:
		return fallback
	}
	return last
}

func applyFontProps(style captions.Style, fp sceneplan.FontProps) (captions.Style, error) {
	if f := strings.TrimSpace(fp.Font); f != "" {
		style.Font = f
	}
	if fp.FontSize > 0 {
		style.Size = float64(fp.FontSize)
	}
	if fp.FontColor != "" {
		c, err := captions.ParseColor(fp.FontColor)
		if err != nil {
			return style, fmt.Errorf("font_color: %w", err)
		}
		style.Color = c
	}
	if fp.StrokeWidth != nil {
		style.StrokeWidth = max(0, *fp.StrokeWidth)
	}
	if fp.StrokeColor != "" {
		c, err := captions.ParseColor(fp.StrokeColor)
		if err != nil {
			return style, fmt.Errorf("stroke_color: %w", err)
		}
		style.StrokeColor = c
	}
	return style, nil
}

// resolvePosition returns the overlay center in output pixels. Unknown
// anchor names fall back to the default position, then to center.
func resolvePosition(pos sceneplan.Position, fallback string, frame media.Size) (float64, float64) {
	if pos.Pixel {
		return pos.X, pos.Y
	}
	name := pos.Anchor
	if _, ok := anchorFractions[name]; !ok {
		name = strings.ToLower(strings.TrimSpace(fallback))
	}
	frac, ok := anchorFractions[name]
	if !ok {
		frac = 0.5
	}
	return float64(frame.W) / 2, math.Round(float64(frame.H) * frac)
}

// Transform applies a case transform to overlay text.
func Transform(text, mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "uppercase", "upper":
		return cases.Upper(language.Und).String(text)
	case "lowercase", "lower":
		return cases.Lower(language.Und).String(text)
	case "title":
		return cases.Title(language.Und).String(text)
	}
	return text
}
