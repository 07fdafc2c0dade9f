package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "reelsmith.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Video.Width != 1080 || cfg.Video.Height != 1920 || cfg.Video.FPS != 30 {
		t.Fatalf("unexpected video defaults: %+v", cfg.Video)
	}
	if !cfg.Captions.EnabledValue() || !cfg.FX.EnabledValue() {
		t.Fatal("expected captions and fx enabled by default")
	}
	if cfg.Music.Volume != 0.08 {
		t.Errorf("music volume = %v, want 0.08", cfg.Music.Volume)
	}
}

func TestLoadYAMLMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reelsmith.yaml")
	data := `
video:
  fps: 24
captions:
  style:
    font_size: 48
  highlight_current_word: true
  line_count: 1
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Video.FPS != 24 {
		t.Errorf("fps = %d, want 24", cfg.Video.FPS)
	}
	if cfg.Video.Width != 1080 {
		t.Errorf("width default lost: %d", cfg.Video.Width)
	}
	if cfg.Captions.Style.FontSize != 48 {
		t.Errorf("font size = %d, want 48", cfg.Captions.Style.FontSize)
	}
	if cfg.Captions.Style.FontColor != "white" {
		t.Errorf("font color default lost: %q", cfg.Captions.Style.FontColor)
	}
	if cfg.Captions.Style.StrokeWidthValue() != 3 {
		t.Errorf("stroke width = %d, want 3", cfg.Captions.Style.StrokeWidthValue())
	}
	if !cfg.Captions.HighlightCurrentWord || cfg.Captions.LineCount != 1 {
		t.Errorf("caption overrides not applied: %+v", cfg.Captions)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reelsmith.toml")
	data := `
[video]
width = 720
height = 1280

[music]
volume = 0.2
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Video.Width != 720 || cfg.Video.Height != 1280 {
		t.Errorf("unexpected dimensions %dx%d", cfg.Video.Width, cfg.Video.Height)
	}
	if cfg.Music.Volume != 0.2 {
		t.Errorf("volume = %v", cfg.Music.Volume)
	}
	if cfg.Music.FadeOutSec != 2.0 {
		t.Errorf("fade out default lost: %v", cfg.Music.FadeOutSec)
	}
}

func TestExplicitZeroStrokeSurvivesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reelsmith.yaml")
	if err := os.WriteFile(path, []byte("captions:\n  style:\n    stroke_width: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got := cfg.Captions.Style.StrokeWidthValue(); got != 0 {
		t.Errorf("stroke width = %d, want explicit 0", got)
	}
}

func TestMarshalRoundTripsThroughLoad(t *testing.T) {
	cfg := Default()
	cfg.Video.FPS = 60
	buf, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "reelsmith.yaml")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Video.FPS != 60 {
		t.Errorf("fps = %d after round trip", loaded.Video.FPS)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		EnvTargetFPS:        "25",
		EnvTargetDimensions: "[720, 1280]",
		EnvFFmpeg:           "/opt/ffmpeg/bin/ffmpeg",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv error: %v", err)
	}
	if cfg.Video.FPS != 25 {
		t.Errorf("fps = %d, want 25", cfg.Video.FPS)
	}
	if cfg.Video.Width != 720 || cfg.Video.Height != 1280 {
		t.Errorf("dimensions = %dx%d", cfg.Video.Width, cfg.Video.Height)
	}
	if cfg.Tools.FFmpeg != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("ffmpeg override = %q", cfg.Tools.FFmpeg)
	}
}

func TestApplyEnvRejectsBadFPS(t *testing.T) {
	cfg := Default()
	lookup := func(key string) (string, bool) {
		if key == EnvTargetFPS {
			return "fast", true
		}
		return "", false
	}
	if err := cfg.ApplyEnv(lookup); err == nil {
		t.Fatal("expected error for non-numeric TARGET_FPS")
	}
}

func TestEnvLookupReadsDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("REELSMITH_TEST_ONLY_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	lookup, err := EnvLookup(path)
	if err != nil {
		t.Fatalf("EnvLookup error: %v", err)
	}
	if v, ok := lookup("REELSMITH_TEST_ONLY_KEY"); !ok || v != "from-dotenv" {
		t.Errorf("lookup = %q, %v", v, ok)
	}

	t.Setenv("REELSMITH_TEST_ONLY_KEY", "from-env")
	if v, _ := lookup("REELSMITH_TEST_ONLY_KEY"); v != "from-env" {
		t.Errorf("process env should win, got %q", v)
	}
}

func TestEnvLookupMissingDotenv(t *testing.T) {
	if _, err := EnvLookup(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing dotenv should not error: %v", err)
	}
}

func TestParseDimensions(t *testing.T) {
	cases := map[string][2]int{
		"1080x1920":    {1080, 1920},
		"720X1280":     {720, 1280},
		"1080,1920":    {1080, 1920},
		"[1080, 1920]": {1080, 1920},
	}
	for input, want := range cases {
		w, h, err := ParseDimensions(input)
		if err != nil {
			t.Fatalf("ParseDimensions(%q) error: %v", input, err)
		}
		if w != want[0] || h != want[1] {
			t.Errorf("ParseDimensions(%q) = %dx%d, want %dx%d", input, w, h, want[0], want[1])
		}
	}
	for _, bad := range []string{"", "1080", "ax1920", "0x100", "1x2x3"} {
		if _, _, err := ParseDimensions(bad); err == nil {
			t.Errorf("ParseDimensions(%q) expected error", bad)
		}
	}
}
