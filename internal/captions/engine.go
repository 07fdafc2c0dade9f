package captions

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/rivo/uniseg"
)

// NoHighlight renders a line without recoloring any word.
var NoHighlight = Span{Start: -1, End: -1}

// Style is everything that shapes a rendered line of text.
type Style struct {
	// Font is a TTF/OTF path; empty selects the bundled Go Bold face.
	Font           string
	Size           float64
	Color          color.RGBA
	StrokeColor    color.RGBA
	StrokeWidth    int
	HighlightColor color.RGBA
	// Kerning is extra spacing in pixels between graphemes.
	Kerning       int
	ShadowOpacity float64
	ShadowBlur    int
	ShadowOffset  int
}

func (s Style) hasShadow() bool {
	return s.ShadowOpacity > 0
}

// margin is the space reserved around the text box for the shadow.
func (s Style) margin() int {
	if !s.hasShadow() {
		return 0
	}
	return s.ShadowOffset + 2*s.ShadowBlur
}

type faceKey struct {
	font string
	size float64
}

// Engine measures and rasterizes text. Parsed fonts and faces are kept for
// the engine's lifetime; an engine belongs to one run.
type Engine struct {
	root  string
	fonts map[string]*opentype.Font
	faces map[faceKey]font.Face
}

// NewEngine returns an engine resolving relative font paths against root.
func NewEngine(root string) *Engine {
	return &Engine{
		root:  root,
		fonts: map[string]*opentype.Font{},
		faces: map[faceKey]font.Face{},
	}
}

// Close releases every face the engine opened.
func (e *Engine) Close() error {
	var errs []error
	for key, face := range e.faces {
		if err := face.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(e.faces, key)
	}
	return errors.Join(errs...)
}

func (e *Engine) resolveFont(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) || e.root == "" {
		return path
	}
	return filepath.Join(e.root, path)
}

func (e *Engine) loadFont(path string) (*opentype.Font, error) {
	if f, ok := e.fonts[path]; ok {
		return f, nil
	}
	data := gobold.TTF
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		data = raw
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", filepath.Base(path), err)
	}
	e.fonts[path] = f
	return f, nil
}

// Face returns the face for a font path at size pixels.
func (e *Engine) Face(fontPath string, size float64) (font.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("font size must be positive, got %g", size)
	}
	path := e.resolveFont(fontPath)
	key := faceKey{font: path, size: size}
	if face, ok := e.faces[key]; ok {
		return face, nil
	}
	f, err := e.loadFont(path)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("open face: %w", err)
	}
	e.faces[key] = face
	return face, nil
}

// glyph is one grapheme cluster placed on the baseline.
type glyph struct {
	text   string
	x      fixed.Int26_6
	offset int // byte offset of the cluster in the line text
	space  bool
}

// layout places grapheme clusters left to right, applying the face's kerning
// plus kerning extra pixels between clusters.
func layout(face font.Face, text string, kerning int) ([]glyph, fixed.Int26_6) {
	var (
		glyphs []glyph
		x      fixed.Int26_6
		prev   rune = -1
	)
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		cluster := g.Str()
		runes := g.Runes()
		from, _ := g.Positions()
		space := strings.TrimSpace(cluster) == ""
		if prev >= 0 {
			x += face.Kern(prev, runes[0]) + fixed.I(kerning)
		}
		glyphs = append(glyphs, glyph{text: cluster, x: x, offset: from, space: space})
		x += font.MeasureString(face, cluster)
		prev = runes[len(runes)-1]
	}
	return glyphs, x
}

// Measure returns the pixel width of text drawn in style, stroke included.
func (e *Engine) Measure(text string, style Style) (int, error) {
	face, err := e.Face(style.Font, style.Size)
	if err != nil {
		return 0, err
	}
	_, advance := layout(face, text, style.Kerning)
	return advance.Ceil() + 2*style.StrokeWidth, nil
}

// Fits returns a predicate accepting text no wider than maxWidth pixels.
// Text that cannot be measured never fits.
func (e *Engine) Fits(style Style, maxWidth int) FitFunc {
	return func(text string) bool {
		w, err := e.Measure(text, style)
		return err == nil && w <= maxWidth
	}
}

// RenderLine rasterizes one line of text onto a transparent image sized to
// the text box plus the shadow margin. Clusters inside the highlight span
// are drawn in the style's highlight color. Results are memoized in
// cache when it is non-nil.
func (e *Engine) RenderLine(text string, highlight Span, style Style, cache *RenderCache) (*image.RGBA, error) {
	key := renderKey{Text: text, Highlight: highlight, Style: style}
	if img, ok := cache.get(key); ok {
		return img, nil
	}

	face, err := e.Face(style.Font, style.Size)
	if err != nil {
		return nil, err
	}
	glyphs, advance := layout(face, text, style.Kerning)
	if len(glyphs) == 0 {
		return nil, errors.New("nothing to render")
	}

	metrics := face.Metrics()
	stroke := style.StrokeWidth
	margin := style.margin()
	width := advance.Ceil() + 2*stroke + margin
	height := (metrics.Ascent + metrics.Descent).Ceil() + 2*stroke + margin
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("text %q has no extent", text)
	}
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	origin := fixed.Point26_6{X: fixed.I(stroke), Y: fixed.I(stroke) + metrics.Ascent}

	if style.hasShadow() {
		silhouette := image.NewRGBA(canvas.Bounds())
		shadowOrigin := origin.Add(fixed.P(style.ShadowOffset, style.ShadowOffset))
		drawOutline(silhouette, face, glyphs, shadowOrigin, stroke, uniform(color.RGBA{A: 255}))
		drawGlyphs(silhouette, face, glyphs, shadowOrigin, func(glyph) image.Image { return uniform(color.RGBA{A: 255}) })
		blurred := blur(silhouette, style.ShadowBlur)
		opacity := image.NewUniform(color.Alpha{A: uint8(clampUnit(style.ShadowOpacity) * 255)})
		xdraw.DrawMask(canvas, canvas.Bounds(), blurred, image.Point{}, opacity, image.Point{}, xdraw.Over)
	}

	if stroke > 0 {
		drawOutline(canvas, face, glyphs, origin, stroke, uniform(style.StrokeColor))
	}
	fill := uniform(style.Color)
	hl := uniform(style.HighlightColor)
	drawGlyphs(canvas, face, glyphs, origin, func(g glyph) image.Image {
		if g.offset >= highlight.Start && g.offset < highlight.End {
			return hl
		}
		return fill
	})

	cache.put(key, canvas)
	return canvas, nil
}

// RenderLines rasterizes several lines centered above one another.
func (e *Engine) RenderLines(texts []string, style Style, spacing int, cache *RenderCache) (*image.RGBA, error) {
	images := make([]*image.RGBA, 0, len(texts))
	for _, text := range texts {
		img, err := e.RenderLine(text, NoHighlight, style, cache)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, errors.New("nothing to render")
	}
	width, height := stackExtent(images, spacing)
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	stack(canvas, images, (width)/2, 0, spacing)
	return canvas, nil
}

func drawGlyphs(dst *image.RGBA, face font.Face, glyphs []glyph, origin fixed.Point26_6, src func(glyph) image.Image) {
	d := font.Drawer{Dst: dst, Face: face}
	for _, g := range glyphs {
		if g.space {
			continue
		}
		d.Src = src(g)
		d.Dot = fixed.Point26_6{X: origin.X + g.x, Y: origin.Y}
		d.DrawString(g.text)
	}
}

// drawOutline stamps the glyphs at every offset within a disc of radius
// stroke.
func drawOutline(dst *image.RGBA, face font.Face, glyphs []glyph, origin fixed.Point26_6, stroke int, src image.Image) {
	for dy := -stroke; dy <= stroke; dy++ {
		for dx := -stroke; dx <= stroke; dx++ {
			if dx == 0 && dy == 0 || dx*dx+dy*dy > stroke*stroke {
				continue
			}
			drawGlyphs(dst, face, glyphs, origin.Add(fixed.P(dx, dy)), func(glyph) image.Image { return src })
		}
	}
}

// blur softens img by resampling it down by radius and back up.
func blur(img *image.RGBA, radius int) *image.RGBA {
	if radius <= 1 {
		return img
	}
	b := img.Bounds()
	small := image.NewRGBA(image.Rect(0, 0, max(1, b.Dx()/radius), max(1, b.Dy()/radius)))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), img, b, xdraw.Src, nil)
	out := image.NewRGBA(b)
	xdraw.BiLinear.Scale(out, b, small, small.Bounds(), xdraw.Src, nil)
	return out
}

func uniform(c color.RGBA) image.Image {
	return image.NewUniform(c)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
