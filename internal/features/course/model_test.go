package course

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/features/authoring"
	"github.com/mo-amir99/coursehub-server-go/internal/features/user"
	"github.com/mo-amir99/coursehub-server-go/pkg/database/dbtest"
	"github.com/mo-amir99/coursehub-server-go/pkg/pagination"
	"github.com/mo-amir99/coursehub-server-go/pkg/types"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.Open(t, &user.User{}, &Course{})
}

func newInstructor(t *testing.T, db *gorm.DB) user.User {
	t.Helper()
	u, err := user.Create(db, user.CreateInput{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     uuid.NewString()[:8] + "@example.com",
		Password:  "password123",
		Role:      types.RoleInstructor,
	})
	require.NoError(t, err)
	return u
}

func newDraft(t *testing.T, db *gorm.DB, owner uuid.UUID) Course {
	t.Helper()
	c, err := Create(db, CreateInput{
		InstructorID:   owner,
		Title:          "Intro to X",
		CourseType:     TypeCourse,
		Category:       "Development",
		TimeCommitment: "2-4 hours",
	})
	require.NoError(t, err)
	return c
}

func TestCreateStartsAsDraft(t *testing.T) {
	db := openDB(t)
	owner := newInstructor(t, db)

	c := newDraft(t, db, owner.ID)
	assert.Equal(t, StatusDraft, c.Status)
	assert.Equal(t, 1, c.Revision)
	assert.Equal(t, DefaultLanguage, c.Language)
	assert.Equal(t, DefaultLevel, c.Level)
	assert.True(t, c.IsActive)
	assert.Equal(t, []authoring.Step{authoring.StepLandingPage}, []authoring.Step(c.CompletedSteps))

	stored, err := Get(db, c.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, stored.InstructorID)
	assert.NotNil(t, stored.Sections)
	assert.True(t, stored.Price.IsZero())
}

func TestCreateValidation(t *testing.T) {
	db := openDB(t)
	negative := types.NewMoney(-5)

	_, err := Create(db, CreateInput{
		Title:      "This title is far too long to fit into the sixty character limit",
		CourseType: "webinar",
		Level:      "Expert",
		Price:      &negative,
	})

	var fieldErr *ValidationError
	require.True(t, errors.As(err, &fieldErr))
	assert.ErrorIs(t, err, ErrInvalidCourse)
	assert.Contains(t, fieldErr.Fields, "title must be at most 60 characters")
	assert.Contains(t, fieldErr.Fields, "courseType must be one of: course, practice-test")
	assert.Contains(t, fieldErr.Fields, "category is required")
	assert.Contains(t, fieldErr.Fields, "timeCommitment is required")
	assert.Contains(t, fieldErr.Fields, "level must be one of: Beginner, Intermediate, Advanced, All Levels")
	assert.Contains(t, fieldErr.Fields, "price must be greater than or equal to 0")
}

func TestTitleLengthCountsCharacters(t *testing.T) {
	db := openDB(t)
	owner := newInstructor(t, db)

	title := ""
	for i := 0; i < 60; i++ {
		title += "é"
	}
	_, err := Create(db, CreateInput{InstructorID: owner.ID, Title: title, CourseType: TypeCourse, Category: "Music", TimeCommitment: "1 hour"})
	assert.NoError(t, err)
}

func TestUpdateRequiresOwnerAndCurrentRevision(t *testing.T) {
	db := openDB(t)
	owner := newInstructor(t, db)
	other := newInstructor(t, db)
	c := newDraft(t, db, owner.ID)

	title := "Intro to Y"
	_, err := Update(db, c.ID, other.ID, UpdateInput{Revision: c.Revision, Title: &title})
	assert.ErrorIs(t, err, ErrNotOwner)

	updated, err := Update(db, c.ID, owner.ID, UpdateInput{Revision: c.Revision, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Revision)
	assert.Equal(t, title, updated.Title)

	_, err = Update(db, c.ID, owner.ID, UpdateInput{Revision: c.Revision, Title: &title})
	assert.ErrorIs(t, err, ErrRevisionConflict)

	_, err = Update(db, uuid.New(), owner.ID, UpdateInput{Revision: 1})
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestUpdateRevalidates(t *testing.T) {
	db := openDB(t)
	owner := newInstructor(t, db)
	c := newDraft(t, db, owner.ID)

	blank := " "
	_, err := Update(db, c.ID, owner.ID, UpdateInput{Revision: c.Revision, Title: &blank})
	assert.ErrorIs(t, err, ErrInvalidCourse)

	stored, err := Get(db, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intro to X", stored.Title)
	assert.Equal(t, 1, stored.Revision)
}

func TestReplaceCurriculumRecomputesTotals(t *testing.T) {
	db := openDB(t)
	owner := newInstructor(t, db)
	c := newDraft(t, db, owner.ID)

	updated, err := ReplaceCurriculum(db, c.ID, owner.ID, c.Revision, []Section{
		{Title: "Basics", Contents: []Content{{Title: "Welcome", ContentType: ContentVideo, Duration: 300}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TotalLectures)
	assert.Equal(t, 300, updated.TotalDuration)
	assert.Contains(t, updated.CompletedSteps, authoring.StepCurriculum)

	updated, err = ReplaceCurriculum(db, c.ID, owner.ID, updated.Revision, sampleCurriculum())
	require.NoError(t, err)

	stored, err := Get(db, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.TotalLectures)
	assert.Equal(t, 480, stored.TotalDuration)
	assert.Len(t, stored.Sections, 3)
	assert.Equal(t, updated.Revision, stored.Revision)

	updated, err = ReplaceCurriculum(db, c.ID, owner.ID, stored.Revision, nil)
	require.NoError(t, err)
	assert.Zero(t, updated.TotalLectures)
	assert.Zero(t, updated.TotalDuration)
	assert.NotContains(t, updated.CompletedSteps, authoring.StepCurriculum)
}

func TestReplaceCurriculumRejectsStaleRevision(t *testing.T) {
	db := openDB(t)
	owner := newInstructor(t, db)
	c := newDraft(t, db, owner.ID)

	_, err := ReplaceCurriculum(db, c.ID, owner.ID, c.Revision, sampleCurriculum())
	require.NoError(t, err)

	_, err = ReplaceCurriculum(db, c.ID, owner.ID, c.Revision, nil)
	assert.ErrorIs(t, err, ErrRevisionConflict)

	stored, err := Get(db, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.TotalLectures)
}

func TestReplaceCurriculumKeepsPublishedCoursePublishable(t *testing.T) {
	db := openDB(t)
	owner := newInstructor(t, db)
	c := newDraft(t, db, owner.ID)

	c, err := ReplaceCurriculum(db, c.ID, owner.ID, c.Revision, sampleCurriculum())
	require.NoError(t, err)
	published, err := Transition(db, c.ID, owner.ID, ActionPublish, time.Now().UTC())
	require.NoError(t, err)

	for _, sections := range [][]Section{nil, {{Title: "Empty"}}} {
		_, err = ReplaceCurriculum(db, c.ID, owner.ID, published.Revision, sections)
		var fieldErr *ValidationError
		require.True(t, errors.As(err, &fieldErr))
		assert.ErrorIs(t, err, ErrInvalidCurriculum)
		assert.Equal(t, []string{"curriculum step is incomplete: add at least one section with content"}, []string(fieldErr.Fields))
	}

	stored, err := Get(db, c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, stored.Status)
	assert.Equal(t, published.Revision, stored.Revision)
	assert.Equal(t, 3, stored.TotalLectures)
	assert.Len(t, stored.Sections, 3)

	_, err = ReplaceCurriculum(db, c.ID, owner.ID, published.Revision, []Section{
		{Title: "Only", Contents: []Content{{Title: "Welcome", ContentType: ContentVideo, Duration: 60}}},
	})
	assert.NoError(t, err)
}

func TestSaveDetectsConcurrentWrite(t *testing.T) {
	db := openDB(t)
	owner := newInstructor(t, db)
	c := newDraft(t, db, owner.ID)

	stale := c
	require.NoError(t, save(db, &c, map[string]interface{}{"subtitle": "first"}))
	assert.ErrorIs(t, save(db, &stale, map[string]interface{}{"subtitle": "second"}), ErrRevisionConflict)
}

func TestTransitions(t *testing.T) {
	db := openDB(t)
	owner := newInstructor(t, db)
	c := newDraft(t, db, owner.ID)
	now := time.Now().UTC()

	_, err := Transition(db, c.ID, owner.ID, ActionPublish, now)
	var incomplete *authoring.IncompleteError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, []authoring.Step{authoring.StepCurriculum}, incomplete.Missing)

	_, err = ReplaceCurriculum(db, c.ID, owner.ID, c.Revision, sampleCurriculum())
	require.NoError(t, err)

	published, err := Transition(db, c.ID, owner.ID, ActionPublish, now)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
	assert.Contains(t, published.CompletedSteps, authoring.StepPublish)

	_, err = Transition(db, c.ID, owner.ID, ActionPublish, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	steps := []struct {
		action Action
		want   Status
	}{
		{ActionUnpublish, StatusDraft},
		{ActionArchive, StatusArchived},
		{ActionRestore, StatusDraft},
	}
	for _, s := range steps {
		got, err := Transition(db, c.ID, owner.ID, s.action, now)
		require.NoError(t, err, s.action)
		assert.Equal(t, s.want, got.Status)
	}

	_, err = Transition(db, c.ID, owner.ID, ActionRestore, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = Transition(db, c.ID, owner.ID, Action("delete"), now)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	other := newInstructor(t, db)
	_, err = Transition(db, c.ID, other.ID, ActionArchive, now)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestListByInstructorReturnsAllStatuses(t *testing.T) {
	db := openDB(t)
	owner := newInstructor(t, db)
	other := newInstructor(t, db)

	a := newDraft(t, db, owner.ID)
	newDraft(t, db, owner.ID)
	newDraft(t, db, other.ID)
	_, err := Transition(db, a.ID, owner.ID, ActionArchive, time.Now())
	require.NoError(t, err)

	courses, total, err := ListByInstructor(db, InstructorFilters{InstructorID: owner.ID}, pagination.New(1, 20))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, courses, 2)

	courses, total, err = ListByInstructor(db, InstructorFilters{InstructorID: owner.ID, Status: StatusArchived}, pagination.New(1, 20))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, a.ID, courses[0].ID)
}

func TestDeleteAndIncrementStudents(t *testing.T) {
	db := openDB(t)
	owner := newInstructor(t, db)
	c := newDraft(t, db, owner.ID)

	require.NoError(t, IncrementStudents(db, c.ID))
	require.NoError(t, IncrementStudents(db, c.ID))
	stored, err := Get(db, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TotalStudents)

	other := newInstructor(t, db)
	_, err = Delete(db, c.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = Delete(db, c.ID, owner.ID)
	require.NoError(t, err)
	_, err = Get(db, c.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}
