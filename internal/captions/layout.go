package captions

import (
	"image"
	"strings"

	xdraw "golang.org/x/image/draw"

	"reelsmith/internal/media"
)

// Anchor names where a caption block sits on the frame.
type Anchor string

const (
	AnchorTop    Anchor = "top"
	AnchorCenter Anchor = "center"
	AnchorBottom Anchor = "bottom"
)

// ParseAnchor maps a configured position onto an anchor, defaulting to
// bottom.
func ParseAnchor(value string) Anchor {
	switch Anchor(strings.ToLower(strings.TrimSpace(value))) {
	case AnchorTop:
		return AnchorTop
	case AnchorCenter:
		return AnchorCenter
	}
	return AnchorBottom
}

// Block is a run of consecutive lines displayed together.
type Block struct {
	Lines []Line
}

// Start returns the first line's start.
func (b Block) Start() float64 { return b.Lines[0].Start }

// End returns the last line's end.
func (b Block) End() float64 { return b.Lines[len(b.Lines)-1].End }

// GroupBlocks packs lines into blocks of at most lineCount lines.
func GroupBlocks(lines []Line, lineCount int) []Block {
	if lineCount <= 0 {
		lineCount = 1
	}
	var blocks []Block
	for i := 0; i < len(lines); i += lineCount {
		end := min(i+lineCount, len(lines))
		blocks = append(blocks, Block{Lines: lines[i:end]})
	}
	return blocks
}

// Cue is one caption picture: a block with at most one highlighted word,
// shown over [Start, End). ActiveLine and ActiveWord are -1 when no word
// is highlighted.
type Cue struct {
	Block      int
	ActiveLine int
	ActiveWord int
	Start      float64
	End        float64
}

// Cues expands blocks into timed pictures. Without highlighting each block
// is one cue. With highlighting every word of the block gets its own cue;
// pauses between the block's lines keep the previous cue on screen.
func Cues(blocks []Block, highlight bool) []Cue {
	var cues []Cue
	for bi, block := range blocks {
		if !highlight {
			cues = append(cues, Cue{Block: bi, ActiveLine: -1, ActiveWord: -1, Start: block.Start(), End: block.End()})
			continue
		}
		first := len(cues)
		for li, line := range block.Lines {
			for _, v := range ExplodeHighlights(line) {
				cues = append(cues, Cue{Block: bi, ActiveLine: li, ActiveWord: v.Word, Start: v.Start, End: v.End})
			}
		}
		for i := first; i < len(cues)-1; i++ {
			if next := cues[i+1].Start; next > cues[i].End {
				cues[i].End = next
			}
		}
	}
	return cues
}

// Placement positions a stack of lines on a frame.
type Placement struct {
	Frame   media.Size
	Anchor  Anchor
	Padding int
	Spacing int
}

// Compose draws lines stacked top to bottom and horizontally centered on a
// transparent full-frame canvas. Each line's offset grows by the height of
// the lines above it plus the spacing.
func Compose(lines []*image.RGBA, p Placement) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, p.Frame.W, p.Frame.H))
	if len(lines) == 0 {
		return canvas
	}
	_, height := stackExtent(lines, p.Spacing)
	var top int
	switch p.Anchor {
	case AnchorTop:
		top = p.Padding
	case AnchorCenter:
		top = (p.Frame.H - height) / 2
	default:
		top = p.Frame.H - p.Padding - height
	}
	stack(canvas, lines, p.Frame.W/2, top, p.Spacing)
	return canvas
}

func stackExtent(images []*image.RGBA, spacing int) (width, height int) {
	for i, img := range images {
		b := img.Bounds()
		width = max(width, b.Dx())
		height += b.Dy()
		if i > 0 {
			height += spacing
		}
	}
	return width, height
}

func stack(dst *image.RGBA, images []*image.RGBA, centerX, top, spacing int) {
	y := top
	for _, img := range images {
		b := img.Bounds()
		x := centerX - b.Dx()/2
		r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
		xdraw.Draw(dst, r, img, b.Min, xdraw.Over)
		y += b.Dy() + spacing
	}
}
