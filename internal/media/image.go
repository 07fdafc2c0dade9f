package media

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Size is a pixel frame size.
type Size struct {
	W int
	H int
}

// Empty reports whether either dimension is not positive.
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.W, s.H)
}

// Kind classifies a source asset.
type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindVideo
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".m4v": true, ".mkv": true,
	".webm": true, ".avi": true, ".mpg": true, ".mpeg": true,
}

// KindFromExtension guesses the asset kind from its file extension.
func KindFromExtension(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExtensions[ext]:
		return KindImage
	case videoExtensions[ext]:
		return KindVideo
	}
	return KindUnknown
}

// ImageSize reads only the header of an image file and returns its
// dimensions.
func ImageSize(path string) (Size, error) {
	f, err := os.Open(path)
	if err != nil {
		return Size{}, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Size{}, fmt.Errorf("decode image header %s: %w", path, err)
	}
	size := Size{W: cfg.Width, H: cfg.Height}
	if size.Empty() {
		return Size{}, fmt.Errorf("%s image %s has zero area", format, path)
	}
	return size, nil
}
