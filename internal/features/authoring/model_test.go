package authoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateFreshCourse(t *testing.T) {
	p := Evaluate(Snapshot{})

	assert.Equal(t, StepLandingPage, p.Current)
	require.Len(t, p.Steps, 3)
	assert.Equal(t, StepState{Step: StepLandingPage, Complete: false, Reachable: true}, p.Steps[0])
	assert.False(t, p.Steps[1].Reachable)
	assert.False(t, p.Steps[2].Reachable)
}

func TestEvaluateProgression(t *testing.T) {
	cases := []struct {
		name      string
		snap      Snapshot
		current   Step
		reachable []bool
	}{
		{"titled", Snapshot{Title: "Intro"}, StepCurriculum, []bool{true, true, false}},
		{"with curriculum", Snapshot{Title: "Intro", SectionsWithContent: 1}, StepPublish, []bool{true, true, true}},
		{"published", Snapshot{Title: "Intro", SectionsWithContent: 2, Published: true}, StepPublish, []bool{true, true, true}},
		{"curriculum without title", Snapshot{SectionsWithContent: 1}, StepLandingPage, []bool{true, false, false}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Evaluate(tc.snap)
			assert.Equal(t, tc.current, p.Current)
			for i, want := range tc.reachable {
				assert.Equal(t, want, p.Steps[i].Reachable, "step %s", p.Steps[i].Step)
			}
		})
	}
}

func TestBlankTitleIsIncomplete(t *testing.T) {
	assert.False(t, IsComplete(Snapshot{Title: "   "}, StepLandingPage))
}

func TestReadyToPublish(t *testing.T) {
	err := ReadyToPublish(Snapshot{})
	var incomplete *IncompleteError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, []Step{StepLandingPage, StepCurriculum}, incomplete.Missing)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Len(t, incomplete.Messages(), 2)

	err = ReadyToPublish(Snapshot{Title: "Intro"})
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, []Step{StepCurriculum}, incomplete.Missing)

	assert.NoError(t, ReadyToPublish(Snapshot{Title: "Intro", SectionsWithContent: 1}))
}

func TestCompletedAndReachable(t *testing.T) {
	done := Completed(Snapshot{Title: "Intro", Published: true})
	assert.Equal(t, []Step{StepLandingPage, StepPublish}, done)
	assert.False(t, Reachable(done, StepPublish))
	assert.True(t, Reachable(done, StepCurriculum))
	assert.False(t, Reachable(done, Step("bogus")))
}

func TestParseStep(t *testing.T) {
	s, err := ParseStep("curriculum")
	require.NoError(t, err)
	assert.Equal(t, StepCurriculum, s)

	_, err = ParseStep("review")
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestProgressState(t *testing.T) {
	p := Evaluate(Snapshot{Title: "Intro"})

	assert.Equal(t, StepState{Step: StepCurriculum, Complete: false, Reachable: true}, p.State(StepCurriculum))
	assert.Equal(t, StepState{Step: StepLandingPage, Complete: true, Reachable: true}, p.State(StepLandingPage))
	assert.Equal(t, StepState{Step: "bogus"}, p.State("bogus"))
}
