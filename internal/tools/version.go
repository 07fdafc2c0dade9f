package tools

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"reelsmith/internal/media"
)

func readVersion(ctx context.Context, runner media.Runner, def ToolDefinition, path string) (string, error) {
	result, err := runner.Run(ctx, path, []string{def.Binary.VersionSwitch}, media.RunOptions{})
	if err != nil {
		return "", fmt.Errorf("%s version: %w", def.Name, err)
	}
	line := firstLine(strings.TrimSpace(string(result.Stdout)))
	if line == "" {
		return "", fmt.Errorf("%s version: no output", def.Name)
	}
	return normalizeFFmpegVersion(line), nil
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

// Release builds print "ffmpeg version 6.1.1-3ubuntu5 Copyright ..." and git
// builds "ffmpeg version N-113000-g1234abcd"; only the former carries a
// comparable number.
var ffmpegVersionRegex = regexp.MustCompile(`version\s+n?([0-9]+(?:\.[0-9]+){0,2})`)

func normalizeFFmpegVersion(line string) string {
	match := ffmpegVersionRegex.FindStringSubmatch(line)
	if match == nil {
		fields := strings.Fields(line)
		if len(fields) >= 3 && fields[1] == "version" {
			return fields[2]
		}
		return line
	}
	return match[1]
}

// isDevBuild reports whether version is a git snapshot such as N-113000-g1234.
func isDevBuild(version string) bool {
	return strings.HasPrefix(version, "N-") || strings.HasPrefix(version, "git-")
}

func meetsMinimum(version, minimum string) bool {
	if minimum == "" {
		return true
	}
	if version == "" {
		return false
	}
	if isDevBuild(version) {
		return true
	}

	vParts := numericParts(version)
	mParts := numericParts(minimum)
	if len(vParts) == 0 {
		return false
	}
	for len(vParts) < len(mParts) {
		vParts = append(vParts, 0)
	}
	for len(mParts) < len(vParts) {
		mParts = append(mParts, 0)
	}
	for i := range vParts {
		if vParts[i] > mParts[i] {
			return true
		}
		if vParts[i] < mParts[i] {
			return false
		}
	}
	return true
}

func numericParts(version string) []int {
	var parts []int
	current := strings.Builder{}
	flush := func() {
		if current.Len() > 0 {
			val, _ := strconv.Atoi(current.String())
			parts = append(parts, val)
			current.Reset()
		}
	}
	for _, r := range version {
		if r >= '0' && r <= '9' {
			current.WriteRune(r)
			continue
		}
		flush()
		// Anything after the first non-dot separator is a distro suffix.
		if r != '.' {
			break
		}
	}
	flush()
	return parts
}
