package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNoVisualContent means no scene produced a usable clip.
	ErrNoVisualContent = errors.New("no visual content: every scene was skipped")
	// ErrNoAudio means the voiceover is missing or unreadable.
	ErrNoAudio = errors.New("no audio: voiceover missing or unreadable")
	// ErrLocked means another run holds the project lock.
	ErrLocked = errors.New("another run is using this project")
)

// StageError attributes a fatal error to the stage that raised it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
