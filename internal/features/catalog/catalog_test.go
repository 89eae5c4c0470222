package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/features/course"
	"github.com/mo-amir99/coursehub-server-go/internal/features/user"
	"github.com/mo-amir99/coursehub-server-go/pkg/cache"
	"github.com/mo-amir99/coursehub-server-go/pkg/database/dbtest"
	"github.com/mo-amir99/coursehub-server-go/pkg/logger"
	"github.com/mo-amir99/coursehub-server-go/pkg/pagination"
	"github.com/mo-amir99/coursehub-server-go/pkg/types"
)

type fixture struct {
	db       *gorm.DB
	owner    user.User
	sequence int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t, &user.User{}, &course.Course{})
	owner, err := user.Create(db, user.CreateInput{
		FirstName: "Alan", LastName: "Turing", Email: "alan@example.com", Password: "password123", Role: types.RoleInstructor,
	})
	require.NoError(t, err)
	return &fixture{db: db, owner: owner}
}

// add creates a course and optionally publishes it. Creation times are spaced so ordering is deterministic.
func (f *fixture) add(t *testing.T, title, category, level, description string, publish bool) course.Course {
	t.Helper()
	c, err := course.Create(f.db, course.CreateInput{
		InstructorID: f.owner.ID, Title: title, CourseType: course.TypeCourse,
		Category: category, TimeCommitment: "1 hour", Level: level, Description: description,
	})
	require.NoError(t, err)

	f.sequence++
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.sequence) * time.Hour)
	require.NoError(t, f.db.Model(&course.Course{}).Where("id = ?", c.ID).Update("created_at", created).Error)

	if publish {
		c, err = course.ReplaceCurriculum(f.db, c.ID, f.owner.ID, c.Revision, []course.Section{
			{Title: "S", Contents: []course.Content{{Title: "L", ContentType: course.ContentVideo, Duration: 60}}},
		})
		require.NoError(t, err)
		c, err = course.Transition(f.db, c.ID, f.owner.ID, course.ActionPublish, time.Now())
		require.NoError(t, err)
	}
	return c
}

func titles(courses []course.Course) []string {
	out := make([]string, len(courses))
	for i, c := range courses {
		out[i] = c.Title
	}
	return out
}

func TestSearchOnlyReturnsVisibleCourses(t *testing.T) {
	f := newFixture(t)
	f.add(t, "Go Basics", "Development", "Beginner", "", true)
	f.add(t, "Go Drafts", "Development", "Beginner", "", false)
	hidden := f.add(t, "Go Hidden", "Development", "Beginner", "", true)
	inactive := false
	_, err := course.Update(f.db, hidden.ID, f.owner.ID, course.UpdateInput{Revision: hidden.Revision, IsActive: &inactive})
	require.NoError(t, err)
	archived := f.add(t, "Go Archived", "Development", "Beginner", "", true)
	_, err = course.Transition(f.db, archived.ID, f.owner.ID, course.ActionArchive, time.Now())
	require.NoError(t, err)

	for _, filters := range []Filters{{}, {Category: "Development"}, {Level: "Beginner"}, {Search: "go"}} {
		courses, total, err := Search(f.db, filters, pagination.New(1, 20))
		require.NoError(t, err)
		assert.Equal(t, []string{"Go Basics"}, titles(courses), "filters %+v", filters)
		assert.EqualValues(t, 1, total)
	}
}

func TestSearchFiltersAndOrdering(t *testing.T) {
	f := newFixture(t)
	f.add(t, "Rust for Beginners", "Development", "Beginner", "", true)
	f.add(t, "Watercolor", "Art", "All Levels", "Paint with RUST tones", true)
	f.add(t, "Advanced Rust", "Development", "Advanced", "", true)
	f.add(t, "100% Practical", "Business", "All Levels", "", true)

	courses, _, err := Search(f.db, Filters{Search: "rust"}, pagination.New(1, 20))
	require.NoError(t, err)
	assert.Equal(t, []string{"Advanced Rust", "Watercolor", "Rust for Beginners"}, titles(courses))

	courses, _, err = Search(f.db, Filters{Category: "Development", Level: "Advanced"}, pagination.New(1, 20))
	require.NoError(t, err)
	assert.Equal(t, []string{"Advanced Rust"}, titles(courses))

	courses, _, err = Search(f.db, Filters{Search: "%"}, pagination.New(1, 20))
	require.NoError(t, err)
	assert.Equal(t, []string{"100% Practical"}, titles(courses))

	courses, total, err := Search(f.db, Filters{}, pagination.New(2, 3))
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Equal(t, []string{"Rust for Beginners"}, titles(courses))
}

func TestCategories(t *testing.T) {
	f := newFixture(t)
	f.add(t, "A", "Music", "Beginner", "", true)
	f.add(t, "B", "Art", "Beginner", "", true)
	f.add(t, "C", "Music", "Beginner", "", true)
	f.add(t, "D", "Cooking", "Beginner", "", false)

	categories, err := Categories(f.db)
	require.NoError(t, err)
	assert.Equal(t, []string{"Art", "Music"}, categories)
}

func TestFiltersValidate(t *testing.T) {
	assert.NoError(t, Filters{Level: "All Levels"}.Validate())
	assert.ErrorIs(t, Filters{Level: "Expert"}.Validate(), ErrInvalidLevel)
}

type listResponse struct {
	Success    bool                `json:"success"`
	Code       string              `json:"code"`
	Data       []course.Summary    `json:"data"`
	Pagination pagination.Metadata `json:"pagination"`
}

func get(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, listResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func router(f *fixture, c cache.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandler(f.db, logger.Discard(), c, time.Minute))
	return r
}

func TestListUsesGenerationCache(t *testing.T) {
	f := newFixture(t)
	f.add(t, "Cached", "Development", "Beginner", "", true)
	mem := cache.NewMemoryCache()
	r := router(f, mem)

	w, body := get(t, r, "/api/courses?category=Development")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Alan", body.Data[0].Instructor.FirstName)
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))

	// A write that bypasses invalidation is not seen until the generation moves.
	f.add(t, "Second", "Development", "Beginner", "", true)
	_, body = get(t, r, "/api/courses?category=Development")
	assert.Len(t, body.Data, 1)

	_, err := cache.Bump(context.Background(), mem, course.CatalogGenerationKey)
	require.NoError(t, err)
	_, body = get(t, r, "/api/courses?category=Development")
	assert.Len(t, body.Data, 2)
	assert.EqualValues(t, 2, body.Pagination.TotalItems)
}

type brokenCache struct{ cache.Client }

func (brokenCache) Get(context.Context, string) (string, error) {
	return "", errors.New("connection refused")
}

func (brokenCache) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("connection refused")
}

func TestListFallsBackWhenCacheFails(t *testing.T) {
	f := newFixture(t)
	f.add(t, "Resilient", "Development", "Beginner", "", true)

	w, body := get(t, router(f, brokenCache{}), "/api/courses")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body.Data, 1)

	w, body = get(t, router(f, nil), "/api/courses")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body.Data, 1)
}

func TestListRejectsUnknownLevel(t *testing.T) {
	f := newFixture(t)
	w, body := get(t, router(f, nil), "/api/courses?level=Expert")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", body.Code)
}

func TestDraftNeverListed(t *testing.T) {
	f := newFixture(t)
	draft := f.add(t, "Secret Draft", "Development", "Beginner", "", false)

	for _, path := range []string{"/api/courses", "/api/courses?search=secret", "/api/courses?category=Development&level=Beginner"} {
		_, body := get(t, router(f, nil), path)
		for _, s := range body.Data {
			assert.NotEqual(t, draft.ID, s.ID)
		}
	}
	assert.NotEqual(t, uuid.Nil, draft.ID)
}
