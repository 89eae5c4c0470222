// Package authoring models the landing-page -> curriculum -> publish workflow
// instructors follow when building a course. It holds no state of its own;
// completeness is always derived from the persisted course.
package authoring

import "strings"

// Step is one checkpoint of the authoring workflow.
type Step string

const (
	StepLandingPage Step = "landing-page"
	StepCurriculum  Step = "curriculum"
	StepPublish     Step = "publish"
)

// Steps lists the workflow in order. Every step depends on all steps before it.
var Steps = []Step{StepLandingPage, StepCurriculum, StepPublish}

// ParseStep validates a step name.
func ParseStep(value string) (Step, error) {
	for _, s := range Steps {
		if string(s) == value {
			return s, nil
		}
	}
	return "", ErrUnknownStep
}

// Snapshot is the subset of a course that decides step completeness.
type Snapshot struct {
	Title               string
	SectionsWithContent int
	Published           bool
}

// StepState describes one step for the authoring view.
type StepState struct {
	Step      Step `json:"step"`
	Complete  bool `json:"complete"`
	Reachable bool `json:"reachable"`
}

// Progress is the full workflow view. Current is the first incomplete step,
// or the last step once everything is complete.
type Progress struct {
	Steps   []StepState `json:"steps"`
	Current Step        `json:"current"`
}

// IsComplete reports whether snapshot satisfies step.
func IsComplete(s Snapshot, step Step) bool {
	switch step {
	case StepLandingPage:
		return strings.TrimSpace(s.Title) != ""
	case StepCurriculum:
		return s.SectionsWithContent > 0
	case StepPublish:
		return s.Published
	}
	return false
}

// Completed returns the completed steps in workflow order.
func Completed(s Snapshot) []Step {
	out := make([]Step, 0, len(Steps))
	for _, step := range Steps {
		if IsComplete(s, step) {
			out = append(out, step)
		}
	}
	return out
}

// Reachable reports whether every predecessor of step is in completed.
func Reachable(completed []Step, step Step) bool {
	done := make(map[Step]bool, len(completed))
	for _, s := range completed {
		done[s] = true
	}
	for _, s := range Steps {
		if s == step {
			return true
		}
		if !done[s] {
			return false
		}
	}
	return false
}

// Evaluate builds the workflow view for snapshot.
func Evaluate(s Snapshot) Progress {
	completed := Completed(s)
	p := Progress{Steps: make([]StepState, 0, len(Steps))}
	for _, step := range Steps {
		complete := IsComplete(s, step)
		p.Steps = append(p.Steps, StepState{
			Step:      step,
			Complete:  complete,
			Reachable: Reachable(completed, step),
		})
		if !complete && p.Current == "" {
			p.Current = step
		}
	}
	if p.Current == "" {
		p.Current = Steps[len(Steps)-1]
	}
	return p
}

// State returns the entry for step. ParseStep guards the name.
func (p Progress) State(step Step) StepState {
	for _, s := range p.Steps {
		if s.Step == step {
			return s
		}
	}
	return StepState{Step: step}
}

// ReadyToPublish returns an *IncompleteError naming every step before publish
// that is not complete.
func ReadyToPublish(s Snapshot) error {
	var missing []Step
	for _, step := range Steps {
		if step == StepPublish {
			break
		}
		if !IsComplete(s, step) {
			missing = append(missing, step)
		}
	}
	if len(missing) > 0 {
		return &IncompleteError{Missing: missing}
	}
	return nil
}
