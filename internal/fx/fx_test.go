package fx

import (
	"image/color"
	"math"
	"os"
	"testing"

	"reelsmith/internal/captions"
	"reelsmith/internal/config"
	"reelsmith/internal/media"
	"reelsmith/pkg/sceneplan"
)

var frame = media.Size{W: 1080, H: 1920}

func floatp(v float64) *float64 { return &v }
func boolp(v bool) *bool        { return &v }

func testDefaults(t *testing.T) Defaults {
	t.Helper()
	d, err := DefaultsFromConfig(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func scene(id string, start, end float64, fx *sceneplan.FXSuggestion) sceneplan.Entry {
	return sceneplan.Entry{SceneID: id, StartTime: start, EndTime: end, VisualType: sceneplan.VisualAvatar, FXSuggestion: fx}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPlanFadeClampsToThirdOfDuration(t *testing.T) {
	entries := []sceneplan.Entry{
		scene("s1", 0, 2, nil),
		scene("s2", 2, 2.9, &sceneplan.FXSuggestion{Type: sceneplan.FXTextOverlayFade, TextContent: "Quick"}),
	}
	overlays, skips := Plan(entries, frame, testDefaults(t))
	if len(skips) != 0 || len(overlays) != 1 {
		t.Fatalf("overlays=%+v skips=%+v", overlays, skips)
	}
	o := overlays[0]
	if o.Start != 2 || !near(o.Duration, 0.9) {
		t.Errorf("overlay should start at the scene start: %+v", o)
	}
	if !near(o.FadeIn, 0.3) || !near(o.FadeOut, 0.3) {
		t.Errorf("fades should clamp to a third of 0.9s, got %v/%v", o.FadeIn, o.FadeOut)
	}
	if o.StartScale != 1 || o.EndScale != 1 {
		t.Errorf("fade overlay must not scale: %+v", o)
	}
	if o.Index != 1 {
		t.Errorf("index = %d, want 1", o.Index)
	}
}

func TestPlanFadeKeepsShortFades(t *testing.T) {
	fx := &sceneplan.FXSuggestion{Type: sceneplan.FXTextOverlayFade, TextContent: "Hold",
		Params: sceneplan.FXParams{FadeIn: floatp(0.25), Duration: floatp(6)}}
	overlays, _ := Plan([]sceneplan.Entry{scene("s", 1, 3, fx)}, frame, testDefaults(t))
	o := overlays[0]
	if o.Duration != 6 || o.FadeIn != 0.25 || o.FadeOut != 0.5 {
		t.Fatalf("unexpected overlay %+v", o)
	}
}

func TestPlanScale(t *testing.T) {
	fx := &sceneplan.FXSuggestion{Type: sceneplan.FXTextOverlayScale, TextContent: "Big news",
		Params: sceneplan.FXParams{
			StartScale: floatp(0.8),
			EndScale:   floatp(1.2),
			Position:   sceneplan.Position{X: 540, Y: 400, Pixel: true},
		}}
	overlays, _ := Plan([]sceneplan.Entry{scene("s", 4, 7, fx)}, frame, testDefaults(t))
	o := overlays[0]
	if o.StartScale != 0.8 || o.EndScale != 1.2 {
		t.Errorf("unexpected scales %+v", o)
	}
	if o.CenterX != 540 || o.CenterY != 400 {
		t.Errorf("pixel position not honored: %v,%v", o.CenterX, o.CenterY)
	}
	if o.FadeIn != 0 || o.FadeOut != 0 {
		t.Errorf("scale overlay without fade flag must not fade: %+v", o)
	}

	fx.Params.Fade = boolp(true)
	faded, _ := Plan([]sceneplan.Entry{scene("s", 4, 7, fx)}, frame, testDefaults(t))
	if faded[0].FadeIn != 0.5 || faded[0].FadeOut != 0.5 {
		t.Errorf("fade flag should wrap the scale in the default envelope: %+v", faded[0])
	}
}

func TestPlanScaleUsesConfiguredDefaults(t *testing.T) {
	fx := &sceneplan.FXSuggestion{Type: sceneplan.FXTextOverlayScale, TextContent: "Zoom"}
	overlays, _ := Plan([]sceneplan.Entry{scene("s", 0, 2, fx)}, frame, testDefaults(t))
	if overlays[0].StartScale != 1 || overlays[0].EndScale != 1.25 {
		t.Fatalf("unexpected default scales %+v", overlays[0])
	}
}

func TestPlanSkips(t *testing.T) {
	entries := []sceneplan.Entry{
		scene("spin", 0, 1, &sceneplan.FXSuggestion{Type: "SPIN", TextContent: "x"}),
		scene("blank", 1, 2, &sceneplan.FXSuggestion{Type: sceneplan.FXTextOverlayFade, TextContent: "   "}),
		scene("color", 2, 3, &sceneplan.FXSuggestion{Type: sceneplan.FXTextOverlayFade, TextContent: "x",
			Params: sceneplan.FXParams{FontProps: sceneplan.FontProps{FontColor: "not-a-color"}}}),
		scene("ok", 3, 4, &sceneplan.FXSuggestion{Type: sceneplan.FXTextOverlayFade, TextContent: "fine"}),
	}
	overlays, skips := Plan(entries, frame, testDefaults(t))
	if len(overlays) != 1 || overlays[0].SceneID != "ok" {
		t.Fatalf("unexpected overlays %+v", overlays)
	}
	if len(skips) != 3 {
		t.Fatalf("expected 3 skips, got %+v", skips)
	}
	for i, id := range []string{"spin", "blank", "color"} {
		if skips[i].SceneID != id || skips[i].Reason == "" {
			t.Errorf("skip %d = %+v", i, skips[i])
		}
	}
}

func TestPlanAnchors(t *testing.T) {
	cases := map[string]float64{
		"top":         230,
		"upper_third": 640,
		"center":      960,
		"lower_third": 1280,
		"bottom":      1690,
		"nowhere":     960,
	}
	for anchor, wantY := range cases {
		fx := &sceneplan.FXSuggestion{Type: sceneplan.FXTextOverlayFade, TextContent: "x",
			Params: sceneplan.FXParams{Position: sceneplan.Position{Anchor: anchor}}}
		overlays, _ := Plan([]sceneplan.Entry{scene("s", 0, 1, fx)}, frame, testDefaults(t))
		if overlays[0].CenterX != 540 || overlays[0].CenterY != wantY {
			t.Errorf("%s: center = %v,%v, want 540,%v", anchor, overlays[0].CenterX, overlays[0].CenterY, wantY)
		}
	}
}

func TestPlanFontProps(t *testing.T) {
	stroke := 0
	fx := &sceneplan.FXSuggestion{Type: sceneplan.FXTextOverlayFade, TextContent: "x",
		Params: sceneplan.FXParams{FontProps: sceneplan.FontProps{FontSize: 50, FontColor: "#ff0000", StrokeWidth: &stroke}}}
	overlays, _ := Plan([]sceneplan.Entry{scene("s", 0, 1, fx)}, frame, testDefaults(t))
	style := overlays[0].Style
	if style.Size != 50 || style.Color != (color.RGBA{255, 0, 0, 255}) || style.StrokeWidth != 0 {
		t.Fatalf("font props not applied: %+v", style)
	}
}

func TestTransform(t *testing.T) {
	cases := []struct{ in, mode, want string }{
		{"big news", "uppercase", "BIG NEWS"},
		{"BIG News", "lowercase", "big news"},
		{"big news today", "title", "Big News Today"},
		{"as is", "", "as is"},
	}
	for _, tc := range cases {
		if got := Transform(tc.in, tc.mode); got != tc.want {
			t.Errorf("Transform(%q, %q) = %q, want %q", tc.in, tc.mode, got, tc.want)
		}
	}
}

func TestRasterizeWritesLayers(t *testing.T) {
	defaults := testDefaults(t)
	engine := captions.NewEngine("")
	defer engine.Close()
	r := &Rasterizer{Engine: engine, Cache: captions.NewRenderCache(), Dir: t.TempDir(), Frame: frame, Defaults: defaults}

	fx := &sceneplan.FXSuggestion{Type: sceneplan.FXTextOverlayScale, TextContent: "This headline is long enough to wrap onto a second line",
		Params: sceneplan.FXParams{Position: sceneplan.Position{Anchor: "upper_third"}, StartScale: floatp(0.9), EndScale: floatp(1.1)}}
	overlays, _ := Plan([]sceneplan.Entry{scene("Scene 01", 2, 5, fx)}, frame, defaults)

	badFont := overlays[0]
	badFont.SceneID = "broken"
	badFont.Style.Font = "/definitely/missing.ttf"

	layers, skips := r.Rasterize(append(overlays, badFont))
	if len(layers) != 1 || len(skips) != 1 || skips[0].SceneID != "broken" {
		t.Fatalf("layers=%+v skips=%+v", layers, skips)
	}
	layer := layers[0]
	if layer.Start != 2 || layer.Duration != 3 || layer.StartScale != 0.9 || layer.EndScale != 1.1 || layer.CenterY != 640 {
		t.Errorf("layer lost overlay timing or placement: %+v", layer)
	}
	if _, err := os.Stat(layer.Image); err != nil {
		t.Errorf("layer image missing: %v", err)
	}
}

func TestPlanFadeCapNeverExceedsThird(t *testing.T) {
	cfg := config.Default()
	cfg.FX.MaxFadeFraction = 0.45
	cfg.FX.FadeSec = 5
	d, err := DefaultsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	fx := &sceneplan.FXSuggestion{Type: sceneplan.FXTextOverlayFade, TextContent: "Long fade"}
	overlays, _ := Plan([]sceneplan.Entry{scene("s", 0, 3, fx)}, frame, d)
	if len(overlays) != 1 {
		t.Fatalf("expected one overlay, got %+v", overlays)
	}
	if o := overlays[0]; !near(o.FadeIn, 1) || !near(o.FadeOut, 1) {
		t.Errorf("fades must stay within a third of 3s, got %v/%v", o.FadeIn, o.FadeOut)
	}
}
