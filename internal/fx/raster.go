package fx

import (
	"fmt"
	"os"
	"path/filepath"

	"reelsmith/internal/captions"
	"reelsmith/internal/media"
	"reelsmith/internal/render"
)

// Rasterizer draws planned overlays to PNG files.
type Rasterizer struct {
	Engine   *captions.Engine
	Cache    *captions.RenderCache
	Dir      string
	Frame    media.Size
	Defaults Defaults
}

// Rasterize renders each overlay into a text layer. Overlays that fail to
// render are returned as skips; the rest keep their order.
func (r *Rasterizer) Rasterize(overlays []Overlay) ([]render.TextLayer, []Skip) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		skips := make([]Skip, len(overlays))
		for i, o := range overlays {
			skips[i] = Skip{SceneID: o.SceneID, Reason: err.Error()}
		}
		return nil, skips
	}

	var (
		layers []render.TextLayer
		skips  []Skip
	)
	for _, o := range overlays {
		layer, err := r.rasterizeOne(o)
		if err != nil {
			skips = append(skips, Skip{SceneID: o.SceneID, Reason: err.Error()})
			continue
		}
		layers = append(layers, layer)
	}
	return layers, skips
}

func (r *Rasterizer) rasterizeOne(o Overlay) (render.TextLayer, error) {
	maxWidth := r.maxWidth()
	lines := captions.WrapText(o.Text, r.Engine.Fits(o.Style, maxWidth))
	img, err := r.Engine.RenderLines(lines, o.Style, r.Defaults.LineSpacing, r.Cache)
	if err != nil {
		return render.TextLayer{}, fmt.Errorf("render text: %w", err)
	}

	name := fmt.Sprintf("fx-%03d-%s.png", o.Index+1, render.SafeFileSlug(o.SceneID))
	path := filepath.Join(r.Dir, name)
	if err := captions.WritePNG(path, img); err != nil {
		return render.TextLayer{}, err
	}
	return render.TextLayer{
		Name:       o.SceneID,
		Image:      path,
		Start:      o.Start,
		Duration:   o.Duration,
		FadeIn:     o.FadeIn,
		FadeOut:    o.FadeOut,
		StartScale: o.StartScale,
		EndScale:   o.EndScale,
		CenterX:    o.CenterX,
		CenterY:    o.CenterY,
	}, nil
}

func (r *Rasterizer) maxWidth() int {
	ratio := r.Defaults.MaxWidthRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.9
	}
	return int(float64(r.Frame.W) * ratio)
}
