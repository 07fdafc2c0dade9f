package captions

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"reelsmith/internal/config"
	"reelsmith/internal/logx"
	"reelsmith/internal/media"
	"reelsmith/pkg/sceneplan"
)

// Options is the resolved caption configuration.
type Options struct {
	Style                 Style
	Placement             Placement
	MaxWidth              int
	LineCount             int
	Highlight             bool
	AllowPartialSentences bool
}

// OptionsFromConfig resolves colors and the usable width from cfg.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	cc := cfg.Captions
	style, err := StyleFromConfig(cc.Style)
	if err != nil {
		return Options{}, fmt.Errorf("captions: %w", err)
	}
	if cc.HighlightCurrentWord {
		hl, err := ParseColor(cc.WordHighlightColor)
		if err != nil {
			return Options{}, fmt.Errorf("captions word_highlight_color: %w", err)
		}
		style.HighlightColor = hl
	}
	style.Kerning = cc.Kerning
	style.ShadowOpacity = cc.ShadowStrengthValue()
	style.ShadowBlur = cc.ShadowBlur
	style.ShadowOffset = cc.ShadowOffset

	frame := media.Size{W: cfg.Video.Width, H: cfg.Video.Height}
	maxWidth := frame.W - 2*cc.Padding
	if cc.MaxWidth > 0 && cc.MaxWidth < maxWidth {
		maxWidth = cc.MaxWidth
	}
	if maxWidth <= 0 {
		return Options{}, fmt.Errorf("captions: padding %d leaves no room on a %dpx frame", cc.Padding, frame.W)
	}

	return Options{
		Style: style,
		Placement: Placement{
			Frame:   frame,
			Anchor:  ParseAnchor(cc.Position),
			Padding: cc.Padding,
			Spacing: cc.LineSpacing,
		},
		MaxWidth:              maxWidth,
		LineCount:             cc.LineCount,
		Highlight:             cc.HighlightCurrentWord,
		AllowPartialSentences: cc.AllowPartialSentences,
	}, nil
}

// StyleFromConfig converts a configured text style.
func StyleFromConfig(ts config.TextStyle) (Style, error) {
	fill, err := ParseColor(ts.FontColor)
	if err != nil {
		return Style{}, fmt.Errorf("font_color: %w", err)
	}
	style := Style{
		Font:        strings.TrimSpace(ts.Font),
		Size:        float64(ts.FontSize),
		Color:       fill,
		StrokeWidth: ts.StrokeWidthValue(),
	}
	if style.StrokeWidth > 0 {
		if style.StrokeColor, err = ParseColor(ts.StrokeColor); err != nil {
			return Style{}, fmt.Errorf("stroke_color: %w", err)
		}
	}
	return style, nil
}

// Frame is one rendered caption picture and its display interval.
type Frame struct {
	Image string
	Start float64
	End   float64
}

// Track is the outcome of a caption build.
type Track struct {
	Lines  []Line
	Frames []Frame
	Blank  string
}

// Builder turns a transcript into caption pictures.
type Builder struct {
	Engine  *Engine
	Cache   *RenderCache
	Options Options
	Logger  zerolog.Logger
}

// NewBuilder wires a builder. A font that cannot be opened is replaced by
// the bundled face with a warning.
func NewBuilder(engine *Engine, cache *RenderCache, opts Options, logger zerolog.Logger) *Builder {
	b := &Builder{Engine: engine, Cache: cache, Options: opts, Logger: logx.Component(logger, "captions")}
	if opts.Style.Font != "" {
		if _, err := engine.Face(opts.Style.Font, opts.Style.Size); err != nil {
			b.Logger.Warn().Err(err).Str("font", opts.Style.Font).Msg("caption font unusable, using bundled font")
			b.Options.Style.Font = ""
		}
	}
	return b
}

// Lines segments the transcript. Words that overflow the width on their own
// are kept on a line of their own and reported.
func (b *Builder) Lines(words sceneplan.Transcript) []Line {
	normalized := make([]sceneplan.Word, 0, len(words))
	for _, w := range words {
		w.Word = norm.NFC.String(strings.TrimSpace(w.Word))
		if w.Word != "" {
			normalized = append(normalized, w)
		}
	}
	fits := b.Engine.Fits(b.Options.Style, b.Options.MaxWidth)
	lines := Segment(normalized, fits, SegmentOptions{AllowPartialSentences: b.Options.AllowPartialSentences})
	for _, line := range lines {
		if line.Overflow {
			b.Logger.Warn().Str("word", line.Text).Int("max_width", b.Options.MaxWidth).
				Msg("word wider than caption area, kept on its own line")
		}
	}
	return lines
}

// Build renders every caption picture into dir and returns their timing.
// A picture that fails to render is skipped; write failures are returned.
func (b *Builder) Build(ctx context.Context, words sceneplan.Transcript, dir string) (Track, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Track{}, fmt.Errorf("prepare captions dir: %w", err)
	}
	if err := clearFrames(dir); err != nil {
		return Track{}, err
	}

	track := Track{Lines: b.Lines(words), Blank: filepath.Join(dir, "blank.png")}
	if err := WritePNG(track.Blank, Compose(nil, b.Options.Placement)); err != nil {
		return Track{}, err
	}

	blocks := GroupBlocks(track.Lines, b.Options.LineCount)
	for i, cue := range Cues(blocks, b.Options.Highlight) {
		if err := ctx.Err(); err != nil {
			return Track{}, err
		}
		img, err := b.renderCue(blocks[cue.Block], cue)
		if err != nil {
			b.Logger.Warn().Err(err).Float64("start", cue.Start).Msg("caption render failed, skipping")
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("cap-%05d.png", i+1))
		if err := WritePNG(path, img); err != nil {
			return Track{}, err
		}
		track.Frames = append(track.Frames, Frame{Image: path, Start: cue.Start, End: cue.End})
	}

	hits, misses := b.Cache.Stats()
	b.Logger.Info().Int("lines", len(track.Lines)).Int("frames", len(track.Frames)).
		Int("cache_hits", hits).Int("cache_misses", misses).Msg("captions rendered")
	return track, nil
}

func (b *Builder) renderCue(block Block, cue Cue) (*image.RGBA, error) {
	images := make([]*image.RGBA, 0, len(block.Lines))
	for li, line := range block.Lines {
		highlight := NoHighlight
		if li == cue.ActiveLine {
			highlight = line.WordSpan(cue.ActiveWord)
		}
		img, err := b.Engine.RenderLine(line.Text, highlight, b.Options.Style, b.Cache)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", line.Text, err)
		}
		images = append(images, img)
	}
	return Compose(images, b.Options.Placement), nil
}

func clearFrames(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "cap-*.png"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove stale caption: %w", err)
		}
	}
	return nil
}

// WritePNG encodes img to path with fast compression.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
