package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config captures the rendering, mixing, overlay and caption configuration
// for a project.
type Config struct {
	Version  int            `yaml:"version" toml:"version"`
	Video    VideoConfig    `yaml:"video" toml:"video"`
	Audio    AudioConfig    `yaml:"audio" toml:"audio"`
	Music    MusicConfig    `yaml:"music" toml:"music"`
	Timeline TimelineConfig `yaml:"timeline" toml:"timeline"`
	FX       FXConfig       `yaml:"fx" toml:"fx"`
	Captions CaptionsConfig `yaml:"captions" toml:"captions"`
	Tools    ToolsConfig    `yaml:"tools" toml:"tools"`
}

// VideoConfig contains output sizing, framerate and encoder settings.
type VideoConfig struct {
	Width  int    `yaml:"width" toml:"width"`
	Height int    `yaml:"height" toml:"height"`
	FPS    int    `yaml:"fps" toml:"fps"`
	Codec  string `yaml:"codec" toml:"codec"`
	Preset string `yaml:"preset" toml:"preset"`
	CRF    *int   `yaml:"crf,omitempty" toml:"crf,omitempty"`
}

// AudioConfig describes audio encoding parameters.
type AudioConfig struct {
	Codec       string `yaml:"codec" toml:"codec"`
	BitrateKbps int    `yaml:"bitrate_kbps" toml:"bitrate_kbps"`
	SampleRate  int    `yaml:"sample_rate" toml:"sample_rate"`
	Channels    int    `yaml:"channels" toml:"channels"`
}

// MusicConfig controls how background music is laid under the voiceover.
type MusicConfig struct {
	Volume     float64 `yaml:"volume" toml:"volume"`
	FadeInSec  float64 `yaml:"fade_in_s" toml:"fade_in_s"`
	FadeOutSec float64 `yaml:"fade_out_s" toml:"fade_out_s"`
}

// TimelineConfig tunes scene reconciliation.
type TimelineConfig struct {
	GapEpsilonSec float64 `yaml:"gap_epsilon_s" toml:"gap_epsilon_s"`
}

// TextStyle is shared by FX overlays and captions.
type TextStyle struct {
	Font        string `yaml:"font" toml:"font"`
	FontSize    int    `yaml:"font_size" toml:"font_size"`
	FontColor   string `yaml:"font_color" toml:"font_color"`
	StrokeWidth *int   `yaml:"stroke_width,omitempty" toml:"stroke_width,omitempty"`
	StrokeColor string `yaml:"stroke_color" toml:"stroke_color"`
}

// StrokeWidthValue returns the effective stroke width.
func (s TextStyle) StrokeWidthValue() int {
	if s.StrokeWidth == nil {
		return 0
	}
	if *s.StrokeWidth < 0 {
		return 0
	}
	return *s.StrokeWidth
}

// FXConfig holds defaults for scene text overlays.
type FXConfig struct {
	Enabled         *bool     `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Style           TextStyle `yaml:"style" toml:"style"`
	FadeSec         float64   `yaml:"fade_s" toml:"fade_s"`
	MaxFadeFraction float64   `yaml:"max_fade_fraction" toml:"max_fade_fraction"`
	StartScale      float64   `yaml:"start_scale" toml:"start_scale"`
	EndScale        float64   `yaml:"end_scale" toml:"end_scale"`
	Position        string    `yaml:"position" toml:"position"`
	MaxWidthRatio   float64   `yaml:"max_width_ratio" toml:"max_width_ratio"`
}

// EnabledValue returns the effective enabled flag applying defaults.
func (f FXConfig) EnabledValue() bool {
	if f.Enabled == nil {
		return true
	}
	return *f.Enabled
}

// CaptionsConfig describes caption layout and styling.
type CaptionsConfig struct {
	Enabled               *bool     `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Style                 TextStyle `yaml:"style" toml:"style"`
	HighlightCurrentWord  bool      `yaml:"highlight_current_word" toml:"highlight_current_word"`
	WordHighlightColor    string    `yaml:"word_highlight_color" toml:"word_highlight_color"`
	LineCount             int       `yaml:"line_count" toml:"line_count"`
	Padding               int       `yaml:"padding" toml:"padding"`
	Position              string    `yaml:"position" toml:"position"`
	ShadowStrength        *float64  `yaml:"shadow_strength,omitempty" toml:"shadow_strength,omitempty"`
	ShadowBlur            int       `yaml:"shadow_blur" toml:"shadow_blur"`
	ShadowOffset          int       `yaml:"shadow_offset" toml:"shadow_offset"`
	Kerning               int       `yaml:"kerning" toml:"kerning"`
	LineSpacing           int       `yaml:"line_spacing" toml:"line_spacing"`
	MaxWidth              int       `yaml:"max_width" toml:"max_width"`
	AllowPartialSentences bool      `yaml:"allow_partial_sentences" toml:"allow_partial_sentences"`
}

// EnabledValue returns the effective enabled flag applying defaults.
func (c CaptionsConfig) EnabledValue() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// ShadowStrengthValue returns the shadow opacity in [0,1].
func (c CaptionsConfig) ShadowStrengthValue() float64 {
	if c.ShadowStrength == nil {
		return 0
	}
	v := *c.ShadowStrength
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ToolsConfig overrides executable locations.
type ToolsConfig struct {
	FFmpeg  string `yaml:"ffmpeg" toml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe" toml:"ffprobe"`
}

// Default returns the baseline configuration: a 1080x1920 vertical video at
// 30 fps with bottom-anchored, stroked captions.
func Default() Config {
	return Config{
		Version: 1,
		Video: VideoConfig{
			Width:  1080,
			Height: 1920,
			FPS:    30,
			Codec:  "libx264",
			Preset: "medium",
			CRF:    intPtr(20),
		},
		Audio: AudioConfig{
			Codec:       "aac",
			BitrateKbps: 192,
			SampleRate:  48000,
			Channels:    2,
		},
		Music: MusicConfig{
			Volume:     0.08,
			FadeInSec:  1.5,
			FadeOutSec: 2.0,
		},
		Timeline: TimelineConfig{
			GapEpsilonSec: 0.01,
		},
		FX: FXConfig{
			Enabled: boolPtr(true),
			Style: TextStyle{
				FontSize:    96,
				FontColor:   "white",
				StrokeWidth: intPtr(4),
				StrokeColor: "black",
			},
			FadeSec:         0.5,
			MaxFadeFraction: 1.0 / 3.0,
			StartScale:      1.0,
			EndScale:        1.25,
			Position:        "center",
			MaxWidthRatio:   0.9,
		},
		Captions: CaptionsConfig{
			Enabled: boolPtr(true),
			Style: TextStyle{
				FontSize:    64,
				FontColor:   "white",
				StrokeWidth: intPtr(3),
				StrokeColor: "black",
			},
			WordHighlightColor: "#FFD200",
			LineCount:          2,
			Padding:            60,
			Position:           "bottom",
			ShadowStrength:     floatPtr(0.6),
			ShadowBlur:         6,
			ShadowOffset:       4,
			LineSpacing:        8,
		},
	}
}

// Load reads the configuration from disk if it exists, otherwise returns the
// default configuration. Files ending in .toml are decoded as TOML, anything
// else as YAML.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if isTOML(path) {
		if err := toml.Unmarshal(contents, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config: %w", err)
		}
	} else if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults ensures nested fields fall back to sensible defaults when the
// file omits them.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.Video.Width == 0 {
		c.Video.Width = defaults.Video.Width
	}
	if c.Video.Height == 0 {
		c.Video.Height = defaults.Video.Height
	}
	if c.Video.FPS == 0 {
		c.Video.FPS = defaults.Video.FPS
	}
	if strings.TrimSpace(c.Video.Codec) == "" {
		c.Video.Codec = defaults.Video.Codec
	}
	if c.Video.CRF == nil {
		c.Video.CRF = defaults.Video.CRF
	}
	if strings.TrimSpace(c.Audio.Codec) == "" {
		c.Audio.Codec = defaults.Audio.Codec
	}
	if c.Audio.BitrateKbps == 0 {
		c.Audio.BitrateKbps = defaults.Audio.BitrateKbps
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = defaults.Audio.SampleRate
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = defaults.Audio.Channels
	}
	if c.Timeline.GapEpsilonSec <= 0 {
		c.Timeline.GapEpsilonSec = defaults.Timeline.GapEpsilonSec
	}

	c.FX.Style = applyStyleDefaults(c.FX.Style, defaults.FX.Style)
	if c.FX.Enabled == nil {
		c.FX.Enabled = boolPtr(true)
	}
	if c.FX.MaxFadeFraction <= 0 {
		c.FX.MaxFadeFraction = defaults.FX.MaxFadeFraction
	}
	if c.FX.StartScale <= 0 {
		c.FX.StartScale = defaults.FX.StartScale
	}
	if c.FX.EndScale <= 0 {
		c.FX.EndScale = defaults.FX.EndScale
	}
	if strings.TrimSpace(c.FX.Position) == "" {
		c.FX.Position = defaults.FX.Position
	}
	if c.FX.MaxWidthRatio <= 0 || c.FX.MaxWidthRatio > 1 {
		c.FX.MaxWidthRatio = defaults.FX.MaxWidthRatio
	}

	c.Captions.Style = applyStyleDefaults(c.Captions.Style, defaults.Captions.Style)
	if c.Captions.Enabled == nil {
		c.Captions.Enabled = boolPtr(true)
	}
	if strings.TrimSpace(c.Captions.WordHighlightColor) == "" {
		c.Captions.WordHighlightColor = defaults.Captions.WordHighlightColor
	}
	if c.Captions.LineCount <= 0 {
		c.Captions.LineCount = defaults.Captions.LineCount
	}
	if strings.TrimSpace(c.Captions.Position) == "" {
		c.Captions.Position = defaults.Captions.Position
	}
	if c.Captions.ShadowStrength == nil {
		c.Captions.ShadowStrength = defaults.Captions.ShadowStrength
	}
}

func applyStyleDefaults(style, defaults TextStyle) TextStyle {
	if style.FontSize <= 0 {
		style.FontSize = defaults.FontSize
	}
	if strings.TrimSpace(style.FontColor) == "" {
		style.FontColor = defaults.FontColor
	}
	if strings.TrimSpace(style.StrokeColor) == "" {
		style.StrokeColor = defaults.StrokeColor
	}
	if style.StrokeWidth == nil {
		style.StrokeWidth = defaults.StrokeWidth
	}
	return style
}

// CRFValue returns the configured constant rate factor.
func (v VideoConfig) CRFValue() int {
	if v.CRF == nil {
		return -1
	}
	return *v.CRF
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

// EncodeTOML returns the TOML encoding of the configuration.
func (c Config) EncodeTOML() ([]byte, error) {
	buf, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func boolPtr(v bool) *bool {
	return &v
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}
