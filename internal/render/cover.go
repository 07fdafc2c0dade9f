package render

import (
	"fmt"

	"reelsmith/internal/media"
)

// Geometry describes a cover-crop: scale the source to Scaled, then cut a
// Target-sized window whose top-left corner is at (X, Y).
type Geometry struct {
	Source media.Size
	Scaled media.Size
	Target media.Size
	X      int
	Y      int
}

// CoverCrop fills dst with src without letterboxing. A source that is wider
// than the target (by aspect ratio) is scaled to the target height, any other
// source to the target width. The scaled side that is not pinned is rounded
// up so it never falls short of the target, and the crop is centered.
func CoverCrop(src, dst media.Size) Geometry {
	g := Geometry{Source: src, Target: dst}
	if src.Empty() || dst.Empty() {
		return g
	}

	// w/h > W/H, compared without division.
	if src.W*dst.H > dst.W*src.H {
		g.Scaled = media.Size{W: ceilDiv(src.W*dst.H, src.H), H: dst.H}
	} else {
		g.Scaled = media.Size{W: dst.W, H: ceilDiv(src.H*dst.W, src.W)}
	}
	if g.Scaled.W < dst.W {
		g.Scaled.W = dst.W
	}
	if g.Scaled.H < dst.H {
		g.Scaled.H = dst.H
	}
	g.X = (g.Scaled.W - dst.W) / 2
	g.Y = (g.Scaled.H - dst.H) / 2
	return g
}

// Valid reports whether the geometry produces a frame.
func (g Geometry) Valid() bool {
	return !g.Source.Empty() && !g.Target.Empty() && !g.Scaled.Empty()
}

// Filter renders the geometry as an ffmpeg scale+crop chain.
func (g Geometry) Filter() string {
	return fmt.Sprintf("scale=%d:%d:flags=lanczos,crop=%d:%d:%d:%d,setsar=1",
		g.Scaled.W, g.Scaled.H, g.Target.W, g.Target.H, g.X, g.Y)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
