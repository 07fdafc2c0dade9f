package logx

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/paths"
)

func TestNewWritesJSONLines(t *testing.T) {
	pp, err := paths.Resolve(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger, closer, err := New(pp, Options{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	componentLogger := Component(logger, "timeline")
	componentLogger.Info().Str("scene", "s1").Msg("planned")
	logger.Debug().Msg("hidden at info level")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(pp.LogsDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one log file, got %v (err=%v)", entries, err)
	}
	data, err := os.ReadFile(filepath.Join(pp.LogsDir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %s", len(lines), data)
	}
	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if event["component"] != "timeline" || event["scene"] != "s1" || event["message"] != "planned" {
		t.Errorf("unexpected event %v", event)
	}
}

func TestBuildMirrorsToConsoleWhenVerbose(t *testing.T) {
	var file, console bytes.Buffer
	logger := build(&file, Options{Console: &console, Verbose: true})
	logger.Debug().Msg("probe ok")

	if !strings.Contains(file.String(), `"probe ok"`) {
		t.Errorf("file output missing event: %s", file.String())
	}
	if !strings.Contains(console.String(), "probe ok") {
		t.Errorf("console output missing event: %s", console.String())
	}
}
