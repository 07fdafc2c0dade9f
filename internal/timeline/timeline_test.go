package timeline

import (
	"errors"
	"math"
	"testing"

	"reelsmith/pkg/sceneplan"
)

const tolerance = 1e-9

func scene(id string, start, end float64) sceneplan.Entry {
	return sceneplan.Entry{SceneID: id, StartTime: start, EndTime: end, VisualType: sceneplan.VisualStockVideo, AssetPath: id + ".mp4"}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestReconcileNoGapsNoExtension(t *testing.T) {
	scenes := []sceneplan.Entry{scene("a", 0, 2), scene("b", 2, 5), scene("c", 5, 7)}
	plan, err := Reconcile(scenes, 7.0, Options{})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if !approx(plan.Total(), 7.0) {
		t.Fatalf("total = %v, want 7.0", plan.Total())
	}
	for _, e := range plan.Entries {
		if e.Gap != 0 || e.Extension != 0 || !approx(e.Effective, e.Planned) {
			t.Errorf("entry %s unexpectedly adjusted: %+v", e.SceneID, e)
		}
	}
}

func TestReconcileAbsorbsGapIntoPrecedingScene(t *testing.T) {
	scenes := []sceneplan.Entry{scene("a", 0, 2.0), scene("b", 2.5, 4)}
	plan, err := Reconcile(scenes, 4, Options{})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	a := plan.Entries[0]
	if !approx(a.Effective, 2.5) || !approx(a.Gap, 0.5) {
		t.Fatalf("scene a effective = %v gap = %v, want 2.5 / 0.5", a.Effective, a.Gap)
	}
	if !approx(plan.Entries[1].Offset, 2.5) {
		t.Errorf("scene b offset = %v, want 2.5", plan.Entries[1].Offset)
	}
}

func TestReconcileExtendsLastScene(t *testing.T) {
	scenes := []sceneplan.Entry{scene("a", 0, 4), scene("b", 4, 9)}
	plan, err := Reconcile(scenes, 10.0, Options{})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	last := plan.Entries[1]
	if !approx(last.Extension, 1.0) || !approx(last.Effective, 6.0) {
		t.Fatalf("last scene = %+v, want extension 1.0", last)
	}
	if plan.Total() < plan.TranscriptEnd {
		t.Errorf("total %v below transcript end %v", plan.Total(), plan.TranscriptEnd)
	}
}

func TestReconcileIgnoresGapsWithinEpsilon(t *testing.T) {
	scenes := []sceneplan.Entry{scene("a", 0, 2), scene("b", 2.005, 4)}
	plan, err := Reconcile(scenes, 0, Options{})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if plan.Entries[0].Gap != 0 {
		t.Errorf("gap below epsilon should be ignored, got %v", plan.Entries[0].Gap)
	}
}

func TestReconcileGapFormulaHoldsForEveryNonLastScene(t *testing.T) {
	scenes := []sceneplan.Entry{
		scene("a", 0, 1.2),
		scene("b", 1.9, 3.0),
		scene("c", 3.0, 3.4),
		scene("d", 4.4, 6.0),
		scene("e", 6.25, 8.0),
	}
	plan, err := Reconcile(scenes, 8.0, Options{})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	for i := 0; i < len(plan.Entries)-1; i++ {
		e := plan.Entries[i]
		want := e.Planned + math.Max(0, scenes[i+1].StartTime-scenes[i].EndTime)
		if !approx(e.Effective, want) {
			t.Errorf("scene %s effective = %v, want %v", e.SceneID, e.Effective, want)
		}
	}
	if !approx(plan.Total(), 8.0) {
		t.Errorf("total = %v, want 8.0", plan.Total())
	}
}

func TestReconcileIsDeterministic(t *testing.T) {
	scenes := []sceneplan.Entry{scene("a", 0, 1.5), scene("b", 1.75, 3), scene("c", 3.5, 4)}
	first, err := Reconcile(scenes, 5, Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Reconcile(scenes, 5, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Entries) != len(second.Entries) {
		t.Fatal("entry count differs between runs")
	}
	for i := range first.Entries {
		if first.Entries[i].SceneID != second.Entries[i].SceneID || first.Entries[i].Effective != second.Entries[i].Effective {
			t.Fatalf("run differs at %d: %+v vs %+v", i, first.Entries[i], second.Entries[i])
		}
	}
}

func TestReconcileDropsNonPositiveScenes(t *testing.T) {
	scenes := []sceneplan.Entry{scene("a", 0, 2), scene("bad", 2, 2), scene("c", 3, 4)}
	plan, err := Reconcile(scenes, 4, Options{})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if len(plan.Entries) != 2 || len(plan.Dropped) != 1 || plan.Dropped[0].SceneID != "bad" {
		t.Fatalf("unexpected plan %+v", plan)
	}
	if !approx(plan.Entries[0].Effective, 3) {
		t.Errorf("scene a should absorb the dropped slot, effective = %v", plan.Entries[0].Effective)
	}
}

func TestReconcileSkipFoldsTimeIntoPrecedingScene(t *testing.T) {
	scenes := []sceneplan.Entry{scene("a", 0, 2), scene("b", 2, 5), scene("c", 5, 7)}
	plan, err := Reconcile(scenes, 7, Options{Skip: map[int]string{1: "asset missing"}})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if len(plan.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(plan.Entries))
	}
	if !approx(plan.Entries[0].Effective, 5) {
		t.Errorf("scene a effective = %v, want 5", plan.Entries[0].Effective)
	}
	if plan.Dropped[0].Reason != "asset missing" {
		t.Errorf("unexpected drop reason %q", plan.Dropped[0].Reason)
	}
	if !approx(plan.Total(), 7) {
		t.Errorf("total = %v, want 7", plan.Total())
	}
}

func TestReconcileSkippedLastSceneExtendsNewLast(t *testing.T) {
	scenes := []sceneplan.Entry{scene("a", 0, 2), scene("b", 2, 5)}
	plan, err := Reconcile(scenes, 5, Options{Skip: map[int]string{1: "decode failed"}})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if !approx(plan.Entries[0].Extension, 3) || !approx(plan.Total(), 5) {
		t.Fatalf("unexpected plan %+v", plan.Entries)
	}
}

func TestReconcileNoScenes(t *testing.T) {
	_, err := Reconcile([]sceneplan.Entry{scene("a", 1, 1)}, 3, Options{})
	if !errors.Is(err, ErrNoScenes) {
		t.Fatalf("expected ErrNoScenes, got %v", err)
	}
}

func TestReconcileFoldsLeadInIntoFirstScene(t *testing.T) {
	scenes := []sceneplan.Entry{scene("a", 1.5, 3), scene("b", 3, 5), scene("c", 5, 6)}
	plan, err := Reconcile(scenes, 6, Options{})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	first := plan.Entries[0]
	if !approx(first.Lead, 1.5) || !approx(first.Effective, 3) {
		t.Errorf("first scene should cover the lead-in: %+v", first)
	}
	for i, e := range plan.Entries {
		if !approx(e.Offset, scenes[i].StartTime) && i > 0 {
			t.Errorf("scene %s plays at %v, planned %v", e.SceneID, e.Offset, scenes[i].StartTime)
		}
	}
	if last := plan.Entries[2]; last.Extension != 0 {
		t.Errorf("lead-in must not turn into a trailing extension: %+v", last)
	}
	if !approx(plan.Total(), 6) {
		t.Errorf("total = %v, want 6", plan.Total())
	}
}

func TestReconcileSkippedFirstSceneBecomesLeadIn(t *testing.T) {
	scenes := []sceneplan.Entry{scene("a", 0, 2), scene("b", 2, 5)}
	plan, err := Reconcile(scenes, 5, Options{Skip: map[int]string{0: "asset missing"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Entries) != 1 || !approx(plan.Entries[0].Lead, 2) || plan.Entries[0].Extension != 0 {
		t.Errorf("unexpected plan %+v", plan.Entries)
	}
}
