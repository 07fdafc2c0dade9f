package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ProjectPaths captures canonical locations for a reelsmith project.
type ProjectPaths struct {
	Root        string
	ConfigFile  string
	EnvFile     string
	MetaDir     string
	StateFile   string
	LockFile    string
	BuildDir    string
	ClipsDir    string
	OverlaysDir string
	CaptionsDir string
	LogsDir     string
	OutputDir   string
}

// Resolve determines the project root using the optional --project flag or the
// current working directory when the flag is empty.
func Resolve(projectFlag string) (ProjectPaths, error) {
	var (
		root string
		err  error
	)

	if projectFlag != "" {
		root, err = filepath.Abs(projectFlag)
	} else {
		root, err = os.Getwd()
	}
	if err != nil {
		return ProjectPaths{}, fmt.Errorf("resolve project root: %w", err)
	}

	return newProjectPaths(root), nil
}

func newProjectPaths(root string) ProjectPaths {
	metaDir := filepath.Join(root, ".reelsmith")
	buildDir := filepath.Join(root, "build")
	return ProjectPaths{
		Root:        root,
		ConfigFile:  detectConfigFile(root),
		EnvFile:     filepath.Join(root, ".env"),
		MetaDir:     metaDir,
		StateFile:   filepath.Join(metaDir, "state.json"),
		LockFile:    filepath.Join(metaDir, "run.lock"),
		BuildDir:    buildDir,
		ClipsDir:    filepath.Join(buildDir, "clips"),
		OverlaysDir: filepath.Join(buildDir, "overlays"),
		CaptionsDir: filepath.Join(buildDir, "captions"),
		LogsDir:     filepath.Join(root, "logs"),
		OutputDir:   filepath.Join(root, "output"),
	}
}

// detectConfigFile prefers reelsmith.yaml and falls back to reelsmith.toml
// when only the TOML file exists.
func detectConfigFile(root string) string {
	yamlPath := filepath.Join(root, "reelsmith.yaml")
	tomlPath := filepath.Join(root, "reelsmith.toml")
	if ok, _ := FileExists(yamlPath); ok {
		return yamlPath
	}
	if ok, _ := FileExists(tomlPath); ok {
		return tomlPath
	}
	return yamlPath
}

// StagePath returns the location of a named intermediate artifact.
func (p ProjectPaths) StagePath(name string) string {
	return filepath.Join(p.BuildDir, name)
}

// DefaultOutput returns the final video location for a project id.
func (p ProjectPaths) DefaultOutput(projectID string) string {
	name := sanitizeName(projectID)
	if name == "" {
		name = "final"
	}
	return filepath.Join(p.OutputDir, name+".mp4")
}

// ResolveInput resolves a user-supplied path against the project root.
func (p ProjectPaths) ResolveInput(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(p.Root, value)
}

func sanitizeName(value string) string {
	value = strings.TrimSpace(value)
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "._")
}

// EnsureRoot makes sure the project root exists on disk.
func (p ProjectPaths) EnsureRoot() error {
	if err := os.MkdirAll(p.Root, 0o755); err != nil {
		return fmt.Errorf("create project root: %w", err)
	}
	return nil
}

// EnsureMetaDirs creates the build/logs/output hierarchy alongside the hidden
// .reelsmith metadata directory.
func (p ProjectPaths) EnsureMetaDirs() error {
	dirs := []string{p.MetaDir, p.BuildDir, p.ClipsDir, p.OverlaysDir, p.CaptionsDir, p.LogsDir, p.OutputDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
