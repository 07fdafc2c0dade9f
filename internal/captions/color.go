package captions

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var namedColors = map[string]color.RGBA{
	"white":       {255, 255, 255, 255},
	"black":       {0, 0, 0, 255},
	"red":         {230, 40, 40, 255},
	"green":       {40, 200, 80, 255},
	"blue":        {40, 110, 240, 255},
	"yellow":      {255, 210, 0, 255},
	"orange":      {255, 140, 0, 255},
	"purple":      {150, 70, 220, 255},
	"pink":        {255, 105, 180, 255},
	"cyan":        {0, 220, 230, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"transparent": {0, 0, 0, 0},
}

// ParseColor accepts a color name, #RGB, #RRGGBB, #RRGGBBAA or the
// ffmpeg-style 0xRRGGBB form.
func ParseColor(value string) (color.RGBA, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return color.RGBA{}, fmt.Errorf("color is empty")
	}
	if c, ok := namedColors[v]; ok {
		return c, nil
	}

	hex := ""
	switch {
	case strings.HasPrefix(v, "#"):
		hex = v[1:]
	case strings.HasPrefix(v, "0x"):
		hex = v[2:]
	default:
		return color.RGBA{}, fmt.Errorf("unknown color %q", value)
	}

	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", value)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", value)
	}
	// color.RGBA is alpha-premultiplied.
	nrgba := color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}
	return color.RGBAModel.Convert(nrgba).(color.RGBA), nil
}
