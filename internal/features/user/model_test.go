package user

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/pkg/database/dbtest"
	"github.com/mo-amir99/coursehub-server-go/pkg/types"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.Open(t, &User{})
}

func createUser(t *testing.T, db *gorm.DB, role types.Role) User {
	t.Helper()
	u, err := Create(db, CreateInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     uuid.NewString()[:8] + "@Example.com",
		Password:  "password123",
		Role:      role,
	})
	require.NoError(t, err)
	return u
}

func TestCreateAssignsRoleProfile(t *testing.T) {
	db := openDB(t)

	student := createUser(t, db, "")
	assert.Equal(t, types.RoleStudent, student.Role)
	assert.NotNil(t, student.Profile.Data().Student)
	assert.Nil(t, student.Profile.Data().Instructor)

	instructor := createUser(t, db, types.RoleInstructor)
	stored, err := Get(db, instructor.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Profile.Data().Instructor)
	assert.Nil(t, stored.Profile.Data().Student)
	assert.Equal(t, VerificationPending, stored.Profile.Data().Instructor.Verification)
	assert.NotNil(t, stored.Wishlist)
	assert.NotNil(t, stored.EnrolledCourses)
	assert.True(t, stored.IsActive)
}

func TestCreateNormalizesEmailAndRejectsDuplicates(t *testing.T) {
	db := openDB(t)

	u, err := Create(db, CreateInput{FirstName: "A", LastName: "B", Email: "  Mixed@Example.COM ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "mixed@example.com", u.Email)

	_, err = Create(db, CreateInput{FirstName: "C", LastName: "D", Email: "mixed@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateValidation(t *testing.T) {
	db := openDB(t)

	cases := []struct {
		name  string
		input CreateInput
		want  error
	}{
		{"missing name", CreateInput{LastName: "B", Email: "a@b.co", Password: "password123"}, ErrNameRequired},
		{"bad email", CreateInput{FirstName: "A", LastName: "B", Email: "nope", Password: "password123"}, ErrInvalidEmail},
		{"short password", CreateInput{FirstName: "A", LastName: "B", Email: "a@b.co", Password: "short"}, ErrInvalidPassword},
		{"unknown role", CreateInput{FirstName: "A", LastName: "B", Email: "a@b.co", Password: "password123", Role: "admin"}, ErrInvalidRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Create(db, tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCheckPassword(t *testing.T) {
	db := openDB(t)
	u := createUser(t, db, types.RoleStudent)

	stored, err := GetByEmail(db, u.Email)
	require.NoError(t, err)
	assert.True(t, stored.CheckPassword("password123"))
	assert.False(t, stored.CheckPassword("password124"))
	assert.NotEqual(t, "password123", stored.Password)
}

func TestUpdateRoleSpecificFields(t *testing.T) {
	db := openDB(t)
	student := createUser(t, db, types.RoleStudent)
	instructor := createUser(t, db, types.RoleInstructor)

	headline := "Staff engineer"
	_, err := Update(db, student.ID, UpdateInput{Headline: &headline})
	assert.ErrorIs(t, err, ErrInstructorOnly)

	goals := []string{"Go", " go ", ""}
	_, err = Update(db, instructor.ID, UpdateInput{LearningGoals: &goals})
	assert.ErrorIs(t, err, ErrStudentOnly)

	updated, err := Update(db, student.ID, UpdateInput{LearningGoals: &goals})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, updated.Profile.Data().Student.LearningGoals)

	expertise := []string{"Distributed systems"}
	_, err = Update(db, instructor.ID, UpdateInput{Headline: &headline, Expertise: &expertise})
	require.NoError(t, err)

	stored, err := Get(db, instructor.ID)
	require.NoError(t, err)
	assert.Equal(t, headline, stored.Profile.Data().Instructor.Headline)
	assert.Equal(t, expertise, stored.Profile.Data().Instructor.Expertise)
}

func TestUpdateRejectsBlankName(t *testing.T) {
	db := openDB(t)
	u := createUser(t, db, types.RoleStudent)

	blank := "  "
	_, err := Update(db, u.ID, UpdateInput{FirstName: &blank})
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestRecordLoginAndDeactivate(t *testing.T) {
	db := openDB(t)
	u := createUser(t, db, types.RoleStudent)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, RecordLogin(db, u.ID, at))
	require.NoError(t, RecordLogin(db, u.ID, at))

	stored, err := Get(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.LoginCount)
	require.NotNil(t, stored.LastLogin)

	require.NoError(t, Deactivate(db, u.ID))
	stored, err = Get(db, u.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	assert.ErrorIs(t, Deactivate(db, uuid.New()), ErrUserNotFound)
}

func TestCompleteOnboarding(t *testing.T) {
	db := openDB(t)
	u := createUser(t, db, types.RoleInstructor)

	done, err := CompleteOnboarding(db, u.ID, OnboardingInput{Answers: map[string]string{"experience": "5 years"}})
	require.NoError(t, err)
	assert.True(t, done.IsOnboarded)
	assert.Equal(t, "5 years", done.Profile.Data().Instructor.OnboardingAnswers["experience"])

	_, err = CompleteOnboarding(db, u.ID, OnboardingInput{})
	assert.ErrorIs(t, err, ErrAlreadyOnboarded)
}

func TestPublicProfilesSkipsUnknownIDs(t *testing.T) {
	db := openDB(t)
	u := createUser(t, db, types.RoleInstructor)

	profiles, err := PublicProfiles(db, []uuid.UUID{u.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Ada", profiles[u.ID].FirstName)
	assert.Equal(t, u.Email, profiles[u.ID].Email)
}

func TestSetProfileImageReturnsPreviousPath(t *testing.T) {
	db := openDB(t)
	u := createUser(t, db, types.RoleStudent)

	prev, err := SetProfileImage(db, u.ID, "https://cdn/a.png", "avatars/a.png")
	require.NoError(t, err)
	assert.Empty(t, prev)

	prev, err = SetProfileImage(db, u.ID, "https://cdn/b.png", "avatars/b.png")
	require.NoError(t, err)
	assert.Equal(t, "avatars/a.png", prev)
}

func TestIsEnrolled(t *testing.T) {
	db := openDB(t)
	u := createUser(t, db, types.RoleStudent)
	courseID := uuid.New()

	ok, err := IsEnrolled(db, u.ID, courseID)
	require.NoError(t, err)
	assert.False(t, ok)

	u.EnrolledCourses = append(u.EnrolledCourses, Enrollment{CourseID: courseID, EnrolledAt: time.Now()})
	require.NoError(t, SaveCollections(db, &u))

	ok, err = IsEnrolled(db, u.ID, courseID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = IsEnrolled(db, u.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = IsEnrolled(db, uuid.New(), courseID)
	require.NoError(t, err)
	assert.False(t, ok)
}
