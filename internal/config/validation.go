package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

var (
	captionPositions = []string{"top", "center", "bottom"}
	fxPositions      = []string{"top", "upper_third", "center", "lower_third", "bottom"}
)

// ValidateStrict runs all strict validations against the config and returns
// structured results. Relative font paths resolve against projectRoot.
func (c Config) ValidateStrict(projectRoot string) []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateVideo()...)
	results = append(results, c.validateMusic()...)
	results = append(results, c.validateFonts(projectRoot)...)
	results = append(results, c.validateCaptions()...)
	results = append(results, c.validateFX()...)
	return results
}

// HasErrors reports whether any result is error-level.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}

func (c Config) validateVideo() []ValidationResult {
	var results []ValidationResult
	v := c.Video
	if v.Width <= 0 || v.Height <= 0 {
		results = append(results, errorResult("video dimensions must be positive, got %dx%d", v.Width, v.Height))
	} else if v.Width%2 != 0 || v.Height%2 != 0 {
		results = append(results, errorResult("video dimensions must be even for yuv420p output, got %dx%d", v.Width, v.Height))
	} else if v.Width > v.Height {
		results = append(results, warningResult("video is landscape (%dx%d); vertical output expects height > width", v.Width, v.Height))
	}
	if v.FPS <= 0 || v.FPS > 120 {
		results = append(results, errorResult("video fps must be between 1 and 120, got %d", v.FPS))
	}
	if crf := v.CRFValue(); crf > 51 {
		results = append(results, errorResult("video crf must be <= 51, got %d", crf))
	}
	return results
}

func (c Config) validateMusic() []ValidationResult {
	var results []ValidationResult
	m := c.Music
	if m.Volume < 0 {
		results = append(results, errorResult("music volume must be >= 0, got %g", m.Volume))
	} else if m.Volume > 1 {
		results = append(results, warningResult("music volume %g is louder than the source; the voiceover may be masked", m.Volume))
	}
	if m.FadeInSec < 0 || m.FadeOutSec < 0 {
		results = append(results, errorResult("music fades must be >= 0"))
	}
	return results
}

func (c Config) validateFonts(projectRoot string) []ValidationResult {
	var results []ValidationResult
	for label, font := range map[string]string{
		"captions.style.font": c.Captions.Style.Font,
		"fx.style.font":       c.FX.Style.Font,
	} {
		font = strings.TrimSpace(font)
		if font == "" {
			continue
		}
		resolved := font
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(projectRoot, resolved)
		}
		if _, err := os.Stat(resolved); err != nil {
			results = append(results, errorResult("%s %q not found", label, font))
		}
	}
	return results
}

func (c Config) validateCaptions() []ValidationResult {
	var results []ValidationResult
	cc := c.Captions
	if !contains(captionPositions, strings.ToLower(strings.TrimSpace(cc.Position))) {
		results = append(results, errorResult("captions position %q must be one of %s", cc.Position, strings.Join(captionPositions, ", ")))
	}
	if cc.LineCount > 4 {
		results = append(results, warningResult("captions line_count %d stacks many lines on a vertical frame", cc.LineCount))
	}
	if cc.Padding < 0 {
		results = append(results, errorResult("captions padding must be >= 0, got %d", cc.Padding))
	}
	if c.Video.Width > 0 && 2*cc.Padding >= c.Video.Width {
		results = append(results, errorResult("captions padding %d leaves no room on a %dpx wide frame", cc.Padding, c.Video.Width))
	}
	if cc.MaxWidth < 0 {
		results = append(results, errorResult("captions max_width must be >= 0, got %d", cc.MaxWidth))
	}
	if cc.ShadowBlur < 0 {
		results = append(results, errorResult("captions shadow_blur must be >= 0, got %d", cc.ShadowBlur))
	}
	return results
}

func (c Config) validateFX() []ValidationResult {
	var results []ValidationResult
	f := c.FX
	if !contains(fxPositions, strings.ToLower(strings.TrimSpace(f.Position))) {
		results = append(results, errorResult("fx position %q must be one of %s", f.Position, strings.Join(fxPositions, ", ")))
	}
	if f.FadeSec < 0 {
		results = append(results, errorResult("fx fade_s must be >= 0, got %g", f.FadeSec))
	}
	if f.MaxFadeFraction > 1.0/3.0+1e-9 {
		results = append(results, errorResult("fx max_fade_fraction must be at most 1/3, got %g", f.MaxFadeFraction))
	}
	return results
}

func errorResult(format string, args ...any) ValidationResult {
	return ValidationResult{Level: "error", Message: fmt.Sprintf(format, args...)}
}

func warningResult(format string, args ...any) ValidationResult {
	return ValidationResult{Level: "warning", Message: fmt.Sprintf(format, args...)}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
