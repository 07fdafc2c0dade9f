package state

import "os"

const (
	ActionRun  = "run"
	ActionSkip = "skip"

	ReasonForced        = "forced"
	ReasonNew           = "new stage"
	ReasonInputChanged  = "input changed"
	ReasonOutputMissing = "output missing"
	ReasonUpToDate      = "up to date"
)

// StageAction describes whether a stage must run and why.
type StageAction struct {
	Stage  string
	Action string
	Reason string
	Prior  StageState
}

// Decide compares the current input hash of a stage with the stored state.
func Decide(rs *RunState, stage, inputHash string, force bool) StageAction {
	action := StageAction{Stage: stage, Action: ActionRun}
	if force {
		action.Reason = ReasonForced
		return action
	}

	prior, exists := rs.Stages[stage]
	if !exists {
		action.Reason = ReasonNew
		return action
	}
	action.Prior = prior

	if prior.InputHash != inputHash {
		action.Reason = ReasonInputChanged
		return action
	}

	if prior.Output != "" {
		if _, err := os.Stat(prior.Output); err != nil {
			action.Reason = ReasonOutputMissing
			return action
		}
	}

	action.Action = ActionSkip
	action.Reason = ReasonUpToDate
	return action
}
