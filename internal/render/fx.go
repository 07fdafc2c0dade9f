package render

import (
	"context"
	"fmt"
	"strings"
)

// TextLayer is a rasterized overlay placed on the output timeline. The image
// is centered on (CenterX, CenterY) for its whole lifetime, so a scale
// animation grows from the text's own center.
type TextLayer struct {
	Name       string
	Image      string
	Start      float64
	Duration   float64
	FadeIn     float64
	FadeOut    float64
	StartScale float64
	EndScale   float64
	CenterX    float64
	CenterY    float64
}

func (l TextLayer) scales() bool {
	return l.StartScale > 0 && l.EndScale > 0 && (l.StartScale != 1 || l.EndScale != 1)
}

// layerChain builds the per-layer filter chain that turns the looped still
// at input index into a timed, animated stream labelled out.
func layerChain(index int, layer TextLayer, out string) string {
	dur := formatSeconds(layer.Duration)
	steps := []string{"format=rgba"}
	if layer.scales() {
		// t is local to the layer here: the still input starts at 0.
		factor := fmt.Sprintf("(%s+(%s)*min(t/%s,1))",
			formatRatio(layer.StartScale), formatRatio(layer.EndScale-layer.StartScale), dur)
		steps = append(steps, fmt.Sprintf("scale=w='trunc(iw*%s/2)*2':h='trunc(ih*%s/2)*2':eval=frame", factor, factor))
	}
	if layer.FadeIn > 0 {
		steps = append(steps, fmt.Sprintf("fade=t=in:st=0:d=%s:alpha=1", formatSeconds(layer.FadeIn)))
	}
	if layer.FadeOut > 0 {
		steps = append(steps, fmt.Sprintf("fade=t=out:st=%s:d=%s:alpha=1",
			formatSeconds(layer.Duration-layer.FadeOut), formatSeconds(layer.FadeOut)))
	}
	steps = append(steps, fmt.Sprintf("setpts=PTS-STARTPTS+%s/TB", formatSeconds(layer.Start)))
	return fmt.Sprintf("[%d:v]%s[%s]", index, strings.Join(steps, ","), out)
}

// BuildOverlayGraph composites layers over input 0 in order, later layers on
// top. The final stream is labelled [vout].
func BuildOverlayGraph(layers []TextLayer) string {
	var parts []string
	current := "0:v"
	for i, layer := range layers {
		src := fmt.Sprintf("ov%d", i)
		parts = append(parts, layerChain(i+1, layer, src))

		next := fmt.Sprintf("v%d", i+1)
		if i == len(layers)-1 {
			next = "vout"
		}
		start := formatSeconds(layer.Start)
		end := formatSeconds(layer.Start + layer.Duration)
		parts = append(parts, fmt.Sprintf(
			"[%s][%s]overlay=x='%s-w/2':y='%s-h/2':eval=frame:eof_action=pass:enable='between(t,%s,%s)'[%s]",
			current, src, formatFloat(layer.CenterX), formatFloat(layer.CenterY), start, end, next))
		current = next
	}
	return strings.Join(parts, ";")
}

// BuildOverlayArgs assembles the ffmpeg call compositing text layers onto
// base. Audio is copied untouched and the duration is pinned to the base.
func BuildOverlayArgs(base string, duration float64, layers []TextLayer, fps int, videoEncode []string, output string) []string {
	args := []string{"-hide_banner", "-y", "-i", base}
	for _, layer := range layers {
		args = append(args,
			"-loop", "1",
			"-framerate", fmt.Sprint(fps),
			"-t", formatSeconds(layer.Duration),
			"-i", layer.Image,
		)
	}
	args = append(args,
		"-filter_complex", BuildOverlayGraph(layers),
		"-map", "[vout]",
		"-map", "0:a?",
	)
	args = append(args, videoEncode...)
	return append(args,
		"-c:a", "copy",
		"-t", formatSeconds(duration),
		"-movflags", "+faststart",
		output,
	)
}

// ApplyOverlays composites text layers onto base. With no layers, or when
// the composite fails, the base render is returned unchanged: overlays are
// never fatal.
func (s *Service) ApplyOverlays(ctx context.Context, base Clip, layers []TextLayer, output string) Clip {
	if len(layers) == 0 {
		s.Logger.Info().Msg("no text overlays, passing base render through")
		return base
	}
	args := BuildOverlayArgs(base.Path, base.Duration, layers, s.FPS(), s.videoEncodeArgs(), output)
	if err := s.ffmpeg(ctx, "fx", output, args); err != nil {
		s.Logger.Warn().Err(err).Msg("overlay composite failed, passing base render through")
		return base
	}
	return Clip{Path: output, Duration: base.Duration, Size: base.Size, FPS: base.FPS}
}
