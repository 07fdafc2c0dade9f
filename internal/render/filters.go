package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ExtendByHoldingLastFrame returns the filter that freezes a video stream's
// final frame for extra seconds. The frozen tail never carries audio: every
// caller drops the source audio or maps audio from a separate input.
func ExtendByHoldingLastFrame(extra float64) string {
	if extra <= 0 {
		return ""
	}
	return "tpad=stop_mode=clone:stop_duration=" + formatSeconds(extra)
}

// fpsFilter forces a constant output frame rate.
func fpsFilter(fps int) string {
	return fmt.Sprintf("fps=%d", fps)
}

// joinFilters joins non-empty filter steps into one chain.
func joinFilters(steps ...string) string {
	kept := steps[:0:0]
	for _, step := range steps {
		if strings.TrimSpace(step) != "" {
			kept = append(kept, step)
		}
	}
	return strings.Join(kept, ",")
}

// formatSeconds renders a time value at millisecond precision.
func formatSeconds(value float64) string {
	return formatFloat(math.Round(value*1000) / 1000)
}

// formatRatio renders a scale factor at four decimals.
func formatRatio(value float64) string {
	return formatFloat(math.Round(value*10000) / 10000)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func clamp(value, minVal, maxVal float64) float64 {
	return math.Max(minVal, math.Min(maxVal, value))
}
