package captions

import "image"

type renderKey struct {
	Text      string
	Highlight Span
	Style     Style
}

// RenderCache memoizes rasterized lines for one run. Repeated caption text,
// highlight variants of the same line and repeated overlay text render once.
type RenderCache struct {
	entries map[renderKey]*image.RGBA
	hits    int
	misses  int
}

// NewRenderCache returns an empty cache.
func NewRenderCache() *RenderCache {
	return &RenderCache{entries: map[renderKey]*image.RGBA{}}
}

func (c *RenderCache) get(key renderKey) (*image.RGBA, bool) {
	if c == nil {
		return nil, false
	}
	img, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return img, ok
}

func (c *RenderCache) put(key renderKey, img *image.RGBA) {
	if c == nil {
		return
	}
	c.entries[key] = img
}

// Len reports the number of cached renders.
func (c *RenderCache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Stats returns the hit and miss counts.
func (c *RenderCache) Stats() (hits, misses int) {
	if c == nil {
		return 0, 0
	}
	return c.hits, c.misses
}
