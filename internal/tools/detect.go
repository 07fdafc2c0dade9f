package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/media"
)

// Detect returns the status of each known tool. Paths configured under
// tools.ffmpeg and tools.ffprobe take precedence over PATH lookup.
func Detect(ctx context.Context, runner media.Runner, overrides config.ToolsConfig) []Status {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if runner == nil {
		runner = media.CmdRunner{}
	}

	var statuses []Status
	for _, name := range KnownTools() {
		def, _ := Definition(name)
		statuses = append(statuses, detectOne(ctx, runner, def, overrideFor(name, overrides)))
	}
	return statuses
}

// Satisfied reports whether every status meets its minimum.
func Satisfied(statuses []Status) bool {
	for _, st := range statuses {
		if !st.Satisfied {
			return false
		}
	}
	return len(statuses) > 0
}

func overrideFor(name string, overrides config.ToolsConfig) string {
	switch name {
	case "ffmpeg":
		return strings.TrimSpace(overrides.FFmpeg)
	case "ffprobe":
		return strings.TrimSpace(overrides.FFprobe)
	}
	return ""
}

func detectOne(ctx context.Context, runner media.Runner, def ToolDefinition, override string) Status {
	status := Status{Tool: def.Name, Minimum: def.MinimumVersion}

	path, err := locate(def, override)
	if err != nil {
		status.Error = err.Error()
		status.Hints = installHints(def.Name)
		return status
	}
	status.Path = path
	status.Override = override != ""

	version, err := readVersion(ctx, runner, def, path)
	if err != nil {
		status.Error = err.Error()
		status.Hints = installHints(def.Name)
		return status
	}
	status.Version = version
	status.Satisfied = meetsMinimum(version, def.MinimumVersion)
	if !status.Satisfied {
		status.Error = fmt.Sprintf("version %s below minimum %s", version, def.MinimumVersion)
		status.Hints = installHints(def.Name)
	}
	return status
}

func locate(def ToolDefinition, override string) (string, error) {
	if override != "" {
		if strings.ContainsRune(override, os.PathSeparator) {
			if _, err := os.Stat(override); err != nil {
				return "", fmt.Errorf("configured %s not usable: %w", def.Name, err)
			}
			return override, nil
		}
		path, err := exec.LookPath(override)
		if err != nil {
			return "", fmt.Errorf("configured %s %q not found in PATH", def.Name, override)
		}
		return path, nil
	}
	path, err := exec.LookPath(def.Binary.Executable)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH", def.Binary.Executable)
	}
	return path, nil
}
