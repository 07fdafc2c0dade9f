package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment keys recognised as overrides.
const (
	EnvTargetFPS        = "TARGET_FPS"
	EnvTargetDimensions = "TARGET_DIMENSIONS"
	EnvFFmpeg           = "REELSMITH_FFMPEG"
	EnvFFprobe          = "REELSMITH_FFPROBE"
)

// LookupFunc resolves an environment key.
type LookupFunc func(key string) (string, bool)

// EnvLookup returns a LookupFunc that consults the process environment first
// and then the key/value pairs of the optional dotenv file. A missing dotenv
// file is not an error.
func EnvLookup(dotenvPath string) (LookupFunc, error) {
	values := map[string]string{}
	if strings.TrimSpace(dotenvPath) != "" {
		parsed, err := godotenv.Read(dotenvPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", dotenvPath, err)
		}
		if parsed != nil {
			values = parsed
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}

// ApplyEnv overlays environment overrides onto the configuration.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		return nil
	}

	if raw, ok := lookup(EnvTargetFPS); ok && strings.TrimSpace(raw) != "" {
		fps, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || fps <= 0 {
			return fmt.Errorf("%s: invalid value %q", EnvTargetFPS, raw)
		}
		c.Video.FPS = fps
	}

	if raw, ok := lookup(EnvTargetDimensions); ok && strings.TrimSpace(raw) != "" {
		w, h, err := ParseDimensions(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTargetDimensions, err)
		}
		c.Video.Width = w
		c.Video.Height = h
	}

	if raw, ok := lookup(EnvFFmpeg); ok && strings.TrimSpace(raw) != "" {
		c.Tools.FFmpeg = strings.TrimSpace(raw)
	}
	if raw, ok := lookup(EnvFFprobe); ok && strings.TrimSpace(raw) != "" {
		c.Tools.FFprobe = strings.TrimSpace(raw)
	}
	return nil
}

// ParseDimensions accepts "1080x1920", "1080,1920" or "[1080, 1920]".
func ParseDimensions(raw string) (int, int, error) {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "[")
	value = strings.TrimSuffix(value, "]")

	var parts []string
	switch {
	case strings.Contains(value, "x"):
		parts = strings.Split(value, "x")
	case strings.Contains(value, "X"):
		parts = strings.Split(value, "X")
	default:
		parts = strings.Split(value, ",")
	}
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid dimensions %q", raw)
	}

	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q", raw)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q", raw)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("dimensions must be positive, got %dx%d", w, h)
	}
	return w, h, nil
}
