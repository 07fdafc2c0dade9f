package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveUsesFlag(t *testing.T) {
	root := t.TempDir()
	pp, err := Resolve(root)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if pp.Root != root {
		t.Fatalf("root = %s, want %s", pp.Root, root)
	}
	if pp.ConfigFile != filepath.Join(root, "reelsmith.yaml") {
		t.Errorf("config file = %s", pp.ConfigFile)
	}
	if pp.StateFile != filepath.Join(root, ".reelsmith", "state.json") {
		t.Errorf("state file = %s", pp.StateFile)
	}
}

func TestConfigFilePrefersTOMLWhenOnlyTOMLExists(t *testing.T) {
	root := t.TempDir()
	tomlPath := filepath.Join(root, "reelsmith.toml")
	if err := os.WriteFile(tomlPath, []byte("[video]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := newProjectPaths(root).ConfigFile; got != tomlPath {
		t.Fatalf("config file = %s, want %s", got, tomlPath)
	}

	yamlPath := filepath.Join(root, "reelsmith.yaml")
	if err := os.WriteFile(yamlPath, []byte("video: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := newProjectPaths(root).ConfigFile; got != yamlPath {
		t.Fatalf("config file = %s, want yaml to win", got)
	}
}

func TestEnsureMetaDirs(t *testing.T) {
	pp := newProjectPaths(t.TempDir())
	if err := pp.EnsureMetaDirs(); err != nil {
		t.Fatalf("EnsureMetaDirs error: %v", err)
	}
	for _, dir := range []string{pp.MetaDir, pp.ClipsDir, pp.OverlaysDir, pp.CaptionsDir, pp.LogsDir, pp.OutputDir} {
		ok, err := DirExists(dir)
		if err != nil || !ok {
			t.Errorf("expected %s to exist (err=%v)", dir, err)
		}
	}
}

func TestDefaultOutputSanitizesProjectID(t *testing.T) {
	pp := newProjectPaths("/proj")
	if got := pp.DefaultOutput("vp 12/final"); got != filepath.Join("/proj", "output", "vp_12_final.mp4") {
		t.Errorf("DefaultOutput = %s", got)
	}
	if got := pp.DefaultOutput(""); got != filepath.Join("/proj", "output", "final.mp4") {
		t.Errorf("DefaultOutput(empty) = %s", got)
	}
}

func TestResolveInput(t *testing.T) {
	pp := newProjectPaths("/proj")
	if got := pp.ResolveInput("inputs/plan.json"); got != filepath.Join("/proj", "inputs", "plan.json") {
		t.Errorf("relative = %s", got)
	}
	if got := pp.ResolveInput("/abs/plan.json"); got != "/abs/plan.json" {
		t.Errorf("absolute = %s", got)
	}
	if got := pp.ResolveInput("  "); got != "" {
		t.Errorf("blank = %q", got)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	if ok, _ := FileExists(dir); ok {
		t.Error("directory should not count as file")
	}
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if ok, err := FileExists(path); err != nil || !ok {
		t.Errorf("FileExists = %v, %v", ok, err)
	}
}
