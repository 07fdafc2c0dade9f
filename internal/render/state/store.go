package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// StageState records the inputs and output of one completed pipeline stage.
type StageState struct {
	InputHash   string    `json:"input_hash"`
	CompletedAt time.Time `json:"completed_at"`
	Output      string    `json:"output"`
	DurationS   float64   `json:"duration_s"`
	RunID       string    `json:"run_id,omitempty"`
	// Skipped lists scene indexes the stage dropped, with the reason.
	Skipped map[int]string `json:"skipped,omitempty"`
}

// RunState tracks stage checkpoints across runs for change detection.
type RunState struct {
	LastRunID string                `json:"last_run_id,omitempty"`
	Stages    map[string]StageState `json:"stages"`
}

// Load reads run state from the given path. A missing or corrupt file
// returns an empty state without error.
func Load(path string) (*RunState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return emptyState(), nil
	}

	var rs RunState
	if err := json.Unmarshal(data, &rs); err != nil {
		return emptyState(), nil
	}

	if rs.Stages == nil {
		rs.Stages = map[string]StageState{}
	}
	return &rs, nil
}

// Save writes the run state atomically to the given path.
func (rs *RunState) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// Record stores a completed stage.
func (rs *RunState) Record(stage string, st StageState) {
	if rs.Stages == nil {
		rs.Stages = map[string]StageState{}
	}
	if st.CompletedAt.IsZero() {
		st.CompletedAt = time.Now().UTC()
	}
	rs.Stages[stage] = st
}

// Invalidate forgets a stage and every stage recorded after it in order.
func (rs *RunState) Invalidate(order []string, stage string) {
	found := false
	for _, name := range order {
		if name == stage {
			found = true
		}
		if found {
			delete(rs.Stages, name)
		}
	}
}

func emptyState() *RunState {
	return &RunState{
		Stages: map[string]StageState{},
	}
}
