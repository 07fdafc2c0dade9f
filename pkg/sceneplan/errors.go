package sceneplan

import (
	"strconv"
	"strings"
)

// ValidationError captures a single field-level validation problem.
type ValidationError struct {
	// Scene is the 1-based index of the offending scene, or 0 for issues
	// that concern the whole document.
	Scene   int
	Item    string
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	parts := []string{}
	if item := strings.TrimSpace(e.Item); item != "" {
		parts = append(parts, item)
	}
	if field := strings.TrimSpace(e.Field); field != "" {
		parts = append(parts, field)
	}
	parts = append(parts, e.Message)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// ValidationErrors aggregates multiple validation issues.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(errs))
	for i, err := range errs {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

// Issues returns a copy of the underlying validation errors.
func (errs ValidationErrors) Issues() []ValidationError {
	return append([]ValidationError(nil), errs...)
}

// DocumentLevel returns the issues that are not tied to a single scene.
func (errs ValidationErrors) DocumentLevel() ValidationErrors {
	var out ValidationErrors
	for _, err := range errs {
		if err.Scene == 0 {
			out = append(out, err)
		}
	}
	return out
}

// ForScene returns the issues reported against the scene at the 1-based index.
func (errs ValidationErrors) ForScene(index int) ValidationErrors {
	var out ValidationErrors
	for _, err := range errs {
		if err.Scene == index {
			out = append(out, err)
		}
	}
	return out
}

func sceneLabel(index int, id string) string {
	if strings.TrimSpace(id) != "" {
		return "scene " + strconv.Quote(id)
	}
	if index <= 0 {
		return "scene"
	}
	return "scene #" + strconv.Itoa(index)
}

func wordLabel(index int) string {
	if index <= 0 {
		return "word"
	}
	return "word #" + strconv.Itoa(index)
}
