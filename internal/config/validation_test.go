package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func findResult(results []ValidationResult, level, substr string) bool {
	for _, r := range results {
		if r.Level == level && strings.Contains(r.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidateStrictDefaultsClean(t *testing.T) {
	results := Default().ValidateStrict(t.TempDir())
	if HasErrors(results) {
		t.Fatalf("default config should validate, got %+v", results)
	}
}

func TestValidateStrictOddDimensions(t *testing.T) {
	cfg := Default()
	cfg.Video.Width = 1081
	results := cfg.ValidateStrict(t.TempDir())
	if !findResult(results, "error", "must be even") {
		t.Fatalf("expected even-dimension error, got %+v", results)
	}
}

func TestValidateStrictLandscapeWarning(t *testing.T) {
	cfg := Default()
	cfg.Video.Width, cfg.Video.Height = 1920, 1080
	results := cfg.ValidateStrict(t.TempDir())
	if HasErrors(results) {
		t.Fatalf("landscape should only warn, got %+v", results)
	}
	if !findResult(results, "warning", "landscape") {
		t.Fatalf("expected landscape warning, got %+v", results)
	}
}

func TestValidateStrictMissingFont(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Captions.Style.Font = "fonts/missing.ttf"
	results := cfg.ValidateStrict(root)
	if !findResult(results, "error", "captions.style.font") {
		t.Fatalf("expected missing font error, got %+v", results)
	}

	if err := os.MkdirAll(filepath.Join(root, "fonts"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "fonts", "missing.ttf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if HasErrors(cfg.ValidateStrict(root)) {
		t.Fatal("font present on disk should validate")
	}
}

func TestValidateStrictPositions(t *testing.T) {
	cfg := Default()
	cfg.Captions.Position = "sideways"
	cfg.FX.Position = "nowhere"
	results := cfg.ValidateStrict(t.TempDir())
	if !findResult(results, "error", "captions position") {
		t.Errorf("expected captions position error, got %+v", results)
	}
	if !findResult(results, "error", "fx position") {
		t.Errorf("expected fx position error, got %+v", results)
	}
}

func TestValidateStrictPaddingTooWide(t *testing.T) {
	cfg := Default()
	cfg.Captions.Padding = cfg.Video.Width / 2
	if !findResult(cfg.ValidateStrict(t.TempDir()), "error", "leaves no room") {
		t.Fatal("expected padding error")
	}
}

func TestValidateStrictMusicVolume(t *testing.T) {
	cfg := Default()
	cfg.Music.Volume = -1
	if !findResult(cfg.ValidateStrict(t.TempDir()), "error", "music volume") {
		t.Fatal("expected negative volume error")
	}
	cfg.Music.Volume = 1.5
	if !findResult(cfg.ValidateStrict(t.TempDir()), "warning", "music volume") {
		t.Fatal("expected loud volume warning")
	}
}

func TestValidateStrictFadeFraction(t *testing.T) {
	cfg := Default()
	cfg.FX.MaxFadeFraction = 0.45
	if !findResult(cfg.ValidateStrict(t.TempDir()), "error", "max_fade_fraction") {
		t.Fatal("expected an error for a fade cap above one third")
	}
	cfg.FX.MaxFadeFraction = 0.25
	if findResult(cfg.ValidateStrict(t.TempDir()), "error", "max_fade_fraction") {
		t.Fatal("a smaller fade cap is valid")
	}
}
