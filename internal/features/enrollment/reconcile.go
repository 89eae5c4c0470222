package enrollment

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/features/course"
	"github.com/mo-amir99/coursehub-server-go/internal/features/user"
	"github.com/mo-amir99/coursehub-server-go/pkg/types"
)

const reconcileBatchSize = 500

// Report summarizes one reconciliation run.
type Report struct {
	CoursesFixed     int `json:"coursesFixed"`
	InstructorsFixed int `json:"instructorsFixed"`
}

// Reconciler recomputes denormalized enrollment counters from the users' enrollment lists.
// It satisfies jobs.Job.
type Reconciler struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewReconciler(db *gorm.DB, logger *slog.Logger) *Reconciler {
	return &Reconciler{db: db, logger: logger}
}

func (r *Reconciler) Name() string { return "enrollment-reconcile" }

func (r *Reconciler) Execute(ctx context.Context) error {
	report, err := Reconcile(r.db.WithContext(ctx))
	if err != nil {
		return err
	}
	r.logger.Info("enrollment counters reconciled",
		slog.Int("coursesFixed", report.CoursesFixed),
		slog.Int("instructorsFixed", report.InstructorsFixed))
	return nil
}

type courseCounter struct {
	ID            uuid.UUID
	InstructorID  uuid.UUID
	Status        course.Status
	TotalStudents int
}

// Reconcile rewrites course.totalStudents and the instructor profile stats
// wherever they drifted from what the enrollment lists say.
func Reconcile(db *gorm.DB) (Report, error) {
	var report Report

	counts := make(map[uuid.UUID]int)
	var batch []user.User
	err := db.Model(&user.User{}).
		Select("id", "enrolled_courses").
		FindInBatches(&batch, reconcileBatchSize, func(tx *gorm.DB, _ int) error {
			for _, u := range batch {
				for _, e := range u.EnrolledCourses {
					counts[e.CourseID]++
				}
			}
			return nil
		}).Error
	if err != nil {
		return report, err
	}

	var courses []courseCounter
	if err := db.Model(&course.Course{}).
		Select("id", "instructor_id", "status", "total_students").
		Find(&courses).Error; err != nil {
		return report, err
	}

	type stats struct{ courses, students int }
	perInstructor := make(map[uuid.UUID]*stats)
	for _, c := range courses {
		actual := counts[c.ID]
		if actual != c.TotalStudents {
			if err := db.Model(&course.Course{}).Where("id = ?", c.ID).
				UpdateColumn("total_students", actual).Error; err != nil {
				return report, err
			}
			report.CoursesFixed++
		}

		s, ok := perInstructor[c.InstructorID]
		if !ok {
			s = &stats{}
			perInstructor[c.InstructorID] = s
		}
		s.students += actual
		if c.Status == course.StatusPublished {
			s.courses++
		}
	}

	var instructors []user.User
	if err := db.Where("role = ?", types.RoleInstructor).Find(&instructors).Error; err != nil {
		return report, err
	}
	for _, u := range instructors {
		profile := u.Profile.Data()
		if profile.Instructor == nil {
			continue
		}
		want := stats{}
		if s, ok := perInstructor[u.ID]; ok {
			want = *s
		}
		if profile.Instructor.TotalCourses == want.courses && profile.Instructor.TotalStudents == want.students {
			continue
		}
		profile.Instructor.TotalCourses = want.courses
		profile.Instructor.TotalStudents = want.students
		if err := db.Model(&user.User{}).Where("id = ?", u.ID).
			UpdateColumn("profile", datatypes.NewJSONType(profile)).Error; err != nil {
			return report, err
		}
		report.InstructorsFixed++
	}

	return report, nil
}
