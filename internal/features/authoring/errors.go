package authoring

import (
	"errors"
	"strings"
)

var (
	ErrIncomplete  = errors.New("course is not ready to publish")
	ErrUnknownStep = errors.New("unknown authoring step")
)

// IncompleteError lists the steps that block publishing.
type IncompleteError struct {
	Missing []Step
}

func (e *IncompleteError) Error() string {
	names := make([]string, len(e.Missing))
	for i, s := range e.Missing {
		names[i] = string(s)
	}
	return ErrIncomplete.Error() + ": missing " + strings.Join(names, ", ")
}

func (e *IncompleteError) Unwrap() error { return ErrIncomplete }

// Messages renders one entry per missing step for the error response.
func (e *IncompleteError) Messages() []string {
	out := make([]string, 0, len(e.Missing))
	for _, s := range e.Missing {
		switch s {
		case StepLandingPage:
			out = append(out, "landing-page step is incomplete: a title is required")
		case StepCurriculum:
			out = append(out, "curriculum step is incomplete: add at least one section with content")
		default:
			out = append(out, string(s)+" step is incomplete")
		}
	}
	return out
}
