package course

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/features/authoring"
	"github.com/mo-amir99/coursehub-server-go/pkg/pagination"
	"github.com/mo-amir99/coursehub-server-go/pkg/types"
	"github.com/mo-amir99/coursehub-server-go/pkg/validation"
)

// CatalogGenerationKey namespaces cached catalog pages. Every course write bumps it.
const CatalogGenerationKey = "catalog:generation"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

type CourseType string

const (
	TypeCourse       CourseType = "course"
	TypePracticeTest CourseType = "practice-test"
)

// Levels lists the accepted difficulty levels.
var Levels = []string{"Beginner", "Intermediate", "Advanced", "All Levels"}

const (
	DefaultLanguage = "English"
	DefaultLevel    = "All Levels"

	maxTitleLength    = 60
	maxSubtitleLength = 120
)

// ValidLevel reports whether level is one of Levels.
func ValidLevel(level string) bool {
	for _, l := range Levels {
		if l == level {
			return true
		}
	}
	return false
}

// Course is the aggregate root: course metadata plus the embedded curriculum tree.
type Course struct {
	types.BaseModel

	InstructorID   uuid.UUID                           `gorm:"type:uuid;not null;index;column:instructor_id" json:"instructorId"`
	Title          string                              `gorm:"type:varchar(60);not null" json:"title"`
	Subtitle       string                              `gorm:"type:varchar(120)" json:"subtitle"`
	CourseType     CourseType                          `gorm:"type:varchar(20);not null;column:course_type" json:"courseType"`
	Category       string                              `gorm:"type:varchar(100);not null;index" json:"category"`
	TimeCommitment string                              `gorm:"type:varchar(50);not null;column:time_commitment" json:"timeCommitment"`
	Status         Status                              `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Description    string                              `gorm:"type:text" json:"description"`
	Price          types.Money                         `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	Thumbnail      string                              `gorm:"type:text" json:"thumbnail"`
	ThumbnailID    string                              `gorm:"type:text;column:thumbnail_id" json:"-"`
	Language       string                              `gorm:"type:varchar(50);not null;default:'English'" json:"language"`
	Level          string                              `gorm:"type:varchar(20);not null;default:'All Levels';index" json:"level"`
	TotalStudents  int                                 `gorm:"not null;default:0;column:total_students" json:"totalStudents"`
	Rating         float64                             `gorm:"type:numeric(3,2);not null;default:0" json:"rating"`
	TotalRatings   int                                 `gorm:"not null;default:0;column:total_ratings" json:"totalRatings"`
	TotalLectures  int                                 `gorm:"not null;default:0;column:total_lectures" json:"totalLectures"`
	TotalDuration  int                                 `gorm:"not null;default:0;column:total_duration" json:"totalDuration"`
	IsActive       bool                                `gorm:"not null;default:true;column:is_active" json:"isActive"`
	Sections       datatypes.JSONSlice[Section]        `gorm:"not null" json:"sections"`
	CompletedSteps datatypes.JSONSlice[authoring.Step] `gorm:"not null;column:completed_steps" json:"completedSteps"`
	Revision       int                                 `gorm:"not null;default:1" json:"revision"`
	PublishedAt    *time.Time                          `gorm:"column:published_at" json:"publishedAt,omitempty"`
}

// TableName overrides the default table name.
func (Course) TableName() string { return "courses" }

// AfterFind replaces JSON nulls with empty collections.
func (c *Course) AfterFind(*gorm.DB) error {
	if c.Sections == nil {
		c.Sections = datatypes.JSONSlice[Section]{}
	}
	if c.CompletedSteps == nil {
		c.CompletedSteps = datatypes.JSONSlice[authoring.Step]{}
	}
	return nil
}

// Snapshot exposes the fields the authoring workflow derives completeness from.
func (c *Course) Snapshot() authoring.Snapshot {
	return authoring.Snapshot{
		Title:               c.Title,
		SectionsWithContent: sectionsWithContent(c.Sections),
		Published:           c.Status == StatusPublished,
	}
}

// Visible reports whether the course belongs in the public catalog.
func (c *Course) Visible() bool {
	return c.Status == StatusPublished && c.IsActive
}

// OwnedBy reports whether userID is the course instructor.
func (c *Course) OwnedBy(userID uuid.UUID) bool {
	return c.InstructorID == userID
}

// refreshDerived recomputes totals and completed steps from the current tree.
func (c *Course) refreshDerived() {
	if c.Sections == nil {
		c.Sections = datatypes.JSONSlice[Section]{}
	}
	c.TotalLectures, c.TotalDuration = Totals(c.Sections)
	c.CompletedSteps = datatypes.JSONSlice[authoring.Step](authoring.Completed(c.Snapshot()))
}

// CreateInput carries data for the landing-page step.
type CreateInput struct {
	InstructorID   uuid.UUID
	Title          string
	Subtitle       string
	CourseType     CourseType
	Category       string
	TimeCommitment string
	Description    string
	Price          *types.Money
	Language       string
	Level          string
}

// UpdateInput captures mutable course fields; nil leaves a field untouched.
// Revision must match the stored revision.
type UpdateInput struct {
	Revision       int
	Title          *string
	Subtitle       *string
	CourseType     *CourseType
	Category       *string
	TimeCommitment *string
	Description    *string
	Price          *types.Money
	Language       *string
	Level          *string
	IsActive       *bool
}

// InstructorFilters narrows the owner listing.
type InstructorFilters struct {
	InstructorID uuid.UUID
	Status       Status
}

// Get retrieves a course by ID.
func Get(db *gorm.DB, id uuid.UUID) (Course, error) {
	var course Course
	if err := db.First(&course, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return course, ErrCourseNotFound
		}
		return course, err
	}
	return course, nil
}

// GetOwned retrieves a course and checks that instructorID owns it.
func GetOwned(db *gorm.DB, id, instructorID uuid.UUID) (Course, error) {
	course, err := Get(db, id)
	if err != nil {
		return course, err
	}
	if !course.OwnedBy(instructorID) {
		return Course{}, ErrNotOwner
	}
	return course, nil
}

// GetVisible retrieves a published, active course.
func GetVisible(db *gorm.DB, id uuid.UUID) (Course, error) {
	course, err := Get(db, id)
	if err != nil {
		return course, err
	}
	if !course.Visible() {
		return Course{}, ErrCourseNotFound
	}
	return course, nil
}

// ListByIDs loads courses by id. Missing ids are skipped; order is not preserved.
func ListByIDs(db *gorm.DB, ids []uuid.UUID) ([]Course, error) {
	if len(ids) == 0 {
		return []Course{}, nil
	}
	var courses []Course
	err := db.Where("id IN ?", ids).Find(&courses).Error
	return courses, err
}

// ListByInstructor returns every course owned by the instructor regardless of status, newest first.
func ListByInstructor(db *gorm.DB, filters InstructorFilters, params pagination.Params) ([]Course, int64, error) {
	query := db.Model(&Course{}).Where("instructor_id = ?", filters.InstructorID)
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []Course
	err := query.
		Order("created_at DESC").
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&courses).Error
	return courses, total, err
}

// Create inserts a new draft course owned by input.InstructorID.
func Create(db *gorm.DB, input CreateInput) (Course, error) {
	course := Course{
		InstructorID:   input.InstructorID,
		Title:          strings.TrimSpace(input.Title),
		Subtitle:       strings.TrimSpace(input.Subtitle),
		CourseType:     input.CourseType,
		Category:       strings.TrimSpace(input.Category),
		TimeCommitment: strings.TrimSpace(input.TimeCommitment),
		Description:    strings.TrimSpace(input.Description),
		Language:       strings.TrimSpace(input.Language),
		Level:          strings.TrimSpace(input.Level),
		Status:         StatusDraft,
		IsActive:       true,
		Revision:       1,
		Sections:       datatypes.JSONSlice[Section]{},
	}
	if input.Price != nil {
		course.Price = *input.Price
	}
	if course.Language == "" {
		course.Language = DefaultLanguage
	}
	if course.Level == "" {
		course.Level = DefaultLevel
	}

	if errs := validateFields(&course); !errs.Empty() {
		return Course{}, &ValidationError{kind: ErrInvalidCourse, Fields: errs}
	}
	course.refreshDerived()

	if err := db.Create(&course).Error; err != nil {
		return Course{}, err
	}
	return course, nil
}

// Update merges input into the owner's course under an optimistic revision check.
func Update(db *gorm.DB, id, instructorID uuid.UUID, input UpdateInput) (Course, error) {
	course, err := GetOwned(db, id, instructorID)
	if err != nil {
		return course, err
	}
	if course.Revision != input.Revision {
		return Course{}, ErrRevisionConflict
	}

	if input.Title != nil {
		course.Title = strings.TrimSpace(*input.Title)
	}
	if input.Subtitle != nil {
		course.Subtitle = strings.TrimSpace(*input.Subtitle)
	}
	if input.CourseType != nil {
		course.CourseType = *input.CourseType
	}
	if input.Category != nil {
		course.Category = strings.TrimSpace(*input.Category)
	}
	if input.TimeCommitment != nil {
		course.TimeCommitment = strings.TrimSpace(*input.TimeCommitment)
	}
	if input.Description != nil {
		course.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		course.Price = *input.Price
	}
	if input.Language != nil {
		course.Language = strings.TrimSpace(*input.Language)
	}
	if input.Level != nil {
		course.Level = strings.TrimSpace(*input.Level)
	}
	if input.IsActive != nil {
		course.IsActive = *input.IsActive
	}

	if errs := validateFields(&course); !errs.Empty() {
		return Course{}, &ValidationError{kind: ErrInvalidCourse, Fields: errs}
	}
	course.refreshDerived()

	return course, save(db, &course, map[string]interface{}{
		"title":           course.Title,
		"subtitle":        course.Subtitle,
		"course_type":     course.CourseType,
		"category":        course.Category,
		"time_commitment": course.TimeCommitment,
		"description":     course.Description,
		"price":           course.Price,
		"language":        course.Language,
		"level":           course.Level,
		"is_active":       course.IsActive,
		"completed_steps": course.CompletedSteps,
	})
}

// ReplaceCurriculum swaps the whole section tree and recomputes the derived totals.
// Published courses reject a tree that would leave them unpublishable.
func ReplaceCurriculum(db *gorm.DB, id, instructorID uuid.UUID, revision int, sections []Section) (Course, error) {
	course, err := GetOwned(db, id, instructorID)
	if err != nil {
		return course, err
	}
	if course.Revision != revision {
		return Course{}, ErrRevisionConflict
	}

	normalized, errs := NormalizeCurriculum(sections)
	if !errs.Empty() {
		return Course{}, &ValidationError{kind: ErrInvalidCurriculum, Fields: errs}
	}

	course.Sections = datatypes.JSONSlice[Section](normalized)
	course.refreshDerived()

	// A published course must stay publishable; unpublish before emptying it.
	if course.Status == StatusPublished {
		var incomplete *authoring.IncompleteError
		if errors.As(authoring.ReadyToPublish(course.Snapshot()), &incomplete) {
			return Course{}, &ValidationError{kind: ErrInvalidCurriculum, Fields: incomplete.Messages()}
		}
	}

	return course, save(db, &course, map[string]interface{}{
		"sections":        course.Sections,
		"total_lectures":  course.TotalLectures,
		"total_duration":  course.TotalDuration,
		"completed_steps": course.CompletedSteps,
	})
}

// Action is an explicit status transition.
type Action string

const (
	ActionPublish   Action = "publish"
	ActionUnpublish Action = "unpublish"
	ActionArchive   Action = "archive"
	ActionRestore   Action = "restore"
)

var transitions = map[Action]struct {
	from []Status
	to   Status
}{
	ActionPublish:   {from: []Status{StatusDraft}, to: StatusPublished},
	ActionUnpublish: {from: []Status{StatusPublished}, to: StatusDraft},
	ActionArchive:   {from: []Status{StatusDraft, StatusPublished}, to: StatusArchived},
	ActionRestore:   {from: []Status{StatusArchived}, to: StatusDraft},
}

// Transition applies action to the owner's course. Publishing requires the
// landing-page and curriculum steps to be complete.
func Transition(db *gorm.DB, id, instructorID uuid.UUID, action Action, now time.Time) (Course, error) {
	rule, ok := transitions[action]
	if !ok {
		return Course{}, ErrInvalidTransition
	}

	course, err := GetOwned(db, id, instructorID)
	if err != nil {
		return course, err
	}

	allowed := false
	for _, from := range rule.from {
		if course.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return Course{}, ErrInvalidTransition
	}

	if action == ActionPublish {
		if err := authoring.ReadyToPublish(course.Snapshot()); err != nil {
			return Course{}, err
		}
		course.PublishedAt = &now
	}
	course.Status = rule.to
	course.refreshDerived()

	return course, save(db, &course, map[string]interface{}{
		"status":          course.Status,
		"published_at":    course.PublishedAt,
		"completed_steps": course.CompletedSteps,
	})
}

// SetThumbnail stores a new thumbnail and returns the storage path it replaced.
func SetThumbnail(db *gorm.DB, id, instructorID uuid.UUID, url, path string) (Course, string, error) {
	course, err := GetOwned(db, id, instructorID)
	if err != nil {
		return course, "", err
	}
	previous := course.ThumbnailID

	course.Thumbnail = url
	course.ThumbnailID = path
	err = save(db, &course, map[string]interface{}{
		"thumbnail":    url,
		"thumbnail_id": path,
	})
	return course, previous, err
}

// Delete hard-deletes the owner's course and returns it so callers can clean up assets.
func Delete(db *gorm.DB, id, instructorID uuid.UUID) (Course, error) {
	course, err := GetOwned(db, id, instructorID)
	if err != nil {
		return course, err
	}
	if err := db.Delete(&Course{}, "id = ?", id).Error; err != nil {
		return Course{}, err
	}
	return course, nil
}

// IncrementStudents bumps the enrollment counter with a single atomic update.
func IncrementStudents(db *gorm.DB, id uuid.UUID) error {
	return db.Model(&Course{}).
		Where("id = ?", id).
		UpdateColumn("total_students", gorm.Expr("total_students + ?", 1)).Error
}

// save writes fields guarded by the revision the course was loaded with, then advances it.
func save(db *gorm.DB, course *Course, fields map[string]interface{}) error {
	now := time.Now().UTC()
	fields["revision"] = course.Revision + 1
	fields["updated_at"] = now

	result := db.Model(&Course{}).
		Where("id = ? AND revision = ?", course.ID, course.Revision).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRevisionConflict
	}

	course.Revision++
	course.UpdatedAt = now
	return nil
}

func validateFields(c *Course) validation.Errors {
	var errs validation.Errors
	switch {
	case c.Title == "":
		errs.Add("title is required")
	case !validation.MaxRunes(c.Title, maxTitleLength):
		errs.Add("title must be at most %d characters", maxTitleLength)
	}
	if !validation.MaxRunes(c.Subtitle, maxSubtitleLength) {
		errs.Add("subtitle must be at most %d characters", maxSubtitleLength)
	}
	if c.CourseType != TypeCourse && c.CourseType != TypePracticeTest {
		errs.Add("courseType must be one of: %s, %s", TypeCourse, TypePracticeTest)
	}
	if c.Category == "" {
		errs.Add("category is required")
	}
	if c.TimeCommitment == "" {
		errs.Add("timeCommitment is required")
	}
	if !ValidLevel(c.Level) {
		errs.Add("level must be one of: %s", strings.Join(Levels, ", "))
	}
	if c.Price.IsNegative() {
		errs.Add("price must be greater than or equal to 0")
	}
	return errs
}
