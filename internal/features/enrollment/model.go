package enrollment

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/features/course"
	"github.com/mo-amir99/coursehub-server-go/internal/features/user"
	"github.com/mo-amir99/coursehub-server-go/pkg/pagination"
)

// Result reports what Enroll did.
type Result struct {
	Enrollment user.Enrollment `json:"enrollment"`
	Created    bool            `json:"created"`
}

// Entry is one enrolled course with its live summary. Course is nil when the
// referenced course no longer exists.
type Entry struct {
	user.Enrollment
	Course *course.Summary `json:"course"`
}

// Enroll adds courseID to the user's enrollment list. Repeating the call is a no-op.
//
// The user row is locked while its list is rewritten. The course counter is
// incremented afterwards in its own statement, so a failure between the two
// writes leaves the counter one short until the reconcile job runs.
func Enroll(db *gorm.DB, userID, courseID uuid.UUID, now time.Time) (Result, error) {
	c, err := course.GetVisible(db, courseID)
	if err != nil {
		if errors.Is(err, course.ErrCourseNotFound) {
			return Result{}, ErrCourseUnavailable
		}
		return Result{}, err
	}

	var result Result
	err = db.Transaction(func(tx *gorm.DB) error {
		u, err := user.GetForUpdate(tx, userID)
		if err != nil {
			return err
		}

		if i := u.FindEnrollment(courseID); i >= 0 {
			result = Result{Enrollment: u.EnrolledCourses[i]}
			return nil
		}

		entry := user.Enrollment{CourseID: courseID, Progress: 0, LastAccessed: now, EnrolledAt: now}
		u.EnrolledCourses = append(u.EnrolledCourses, entry)
		u.EnrolledCategories = datatypes.JSONSlice[string](union(u.EnrolledCategories, c.Category))
		if err := user.SaveCollections(tx, &u); err != nil {
			return err
		}

		result = Result{Enrollment: entry, Created: true}
		return nil
	})
	if err != nil || !result.Created {
		return result, err
	}

	if err := course.IncrementStudents(db, courseID); err != nil {
		return result, err
	}
	return result, nil
}

// List returns one page of the user's enrollments in enrollment order, joined with live course summaries.
func List(db *gorm.DB, userID uuid.UUID, params pagination.Params) ([]Entry, int64, error) {
	u, err := user.Get(db, userID)
	if err != nil {
		return nil, 0, err
	}

	total := int64(len(u.EnrolledCourses))
	start := min(params.Skip, len(u.EnrolledCourses))
	end := min(start+params.Limit, len(u.EnrolledCourses))
	window := u.EnrolledCourses[start:end]

	ids := make([]uuid.UUID, len(window))
	for i, e := range window {
		ids[i] = e.CourseID
	}
	courses, err := course.ListByIDs(db, ids)
	if err != nil {
		return nil, 0, err
	}
	summaries, err := course.Summaries(db, courses)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uuid.UUID]*course.Summary, len(summaries))
	for i := range summaries {
		byID[summaries[i].ID] = &summaries[i]
	}

	entries := make([]Entry, len(window))
	for i, e := range window {
		entries[i] = Entry{Enrollment: e, Course: byID[e.CourseID]}
	}
	return entries, total, nil
}

// UpdateProgress records progress for an enrolled course. Reaching 100 adds the
// course to a student's completed list once.
func UpdateProgress(db *gorm.DB, userID, courseID uuid.UUID, progress int, now time.Time) (user.Enrollment, error) {
	if progress < 0 || progress > 100 {
		return user.Enrollment{}, ErrInvalidProgress
	}

	var updated user.Enrollment
	err := db.Transaction(func(tx *gorm.DB) error {
		u, err := user.GetForUpdate(tx, userID)
		if err != nil {
			return err
		}

		i := u.FindEnrollment(courseID)
		if i < 0 {
			return ErrNotEnrolled
		}
		u.EnrolledCourses[i].Progress = progress
		u.EnrolledCourses[i].LastAccessed = now
		updated = u.EnrolledCourses[i]

		if progress == 100 {
			profile := u.Profile.Data()
			if profile.Student != nil && !containsID(profile.Student.CompletedCourses, courseID) {
				profile.Student.CompletedCourses = append(profile.Student.CompletedCourses, courseID)
				u.Profile = datatypes.NewJSONType(profile)
			}
		}
		return user.SaveCollections(tx, &u)
	})
	return updated, err
}

func union(set []string, value string) []string {
	for _, v := range set {
		if v == value {
			return set
		}
	}
	return append(set, value)
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
