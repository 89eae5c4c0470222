package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mo-amir99/coursehub-server-go/pkg/types"
	"github.com/mo-amir99/coursehub-server-go/pkg/validation"
)

const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"

	maxNameLength = 50
)

// User represents a marketplace account. Exactly one of Profile.Instructor and
// Profile.Student is set, matching Role.
type User struct {
	types.BaseModel

	FirstName          string                          `gorm:"type:varchar(50);not null;column:first_name" json:"firstName"`
	LastName           string                          `gorm:"type:varchar(50);not null;column:last_name" json:"lastName"`
	Email              string                          `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Password           string                          `gorm:"type:varchar(255);not null" json:"-"`
	Role               types.Role                      `gorm:"type:varchar(20);not null;default:'student';index" json:"role"`
	ProfileImage       string                          `gorm:"type:text;column:profile_image" json:"profileImage"`
	ProfileImagePath   string                          `gorm:"type:text;column:profile_image_path" json:"-"`
	Bio                string                          `gorm:"type:text" json:"bio"`
	IsActive           bool                            `gorm:"not null;default:true;column:is_active;index" json:"isActive"`
	IsOnboarded        bool                            `gorm:"not null;default:false;column:is_onboarded" json:"isOnboarded"`
	LastLogin          *time.Time                      `gorm:"column:last_login" json:"lastLogin,omitempty"`
	LoginCount         int                             `gorm:"not null;default:0;column:login_count" json:"loginCount"`
	Profile            datatypes.JSONType[Profile]     `gorm:"not null" json:"profile"`
	EnrolledCourses    datatypes.JSONSlice[Enrollment] `gorm:"not null;column:enrolled_courses" json:"enrolledCourses"`
	Wishlist           datatypes.JSONSlice[uuid.UUID]  `gorm:"not null" json:"wishlist"`
	EnrolledCategories datatypes.JSONSlice[string]     `gorm:"not null;column:enrolled_categories" json:"enrolledCategories"`
}

// TableName overrides the default table name.
func (User) TableName() string { return "users" }

// Profile holds the role-specific sub-document.
type Profile struct {
	Instructor *InstructorProfile `json:"instructor,omitempty"`
	Student    *StudentProfile    `json:"student,omitempty"`
}

type InstructorProfile struct {
	Headline          string            `json:"headline"`
	Expertise         []string          `json:"expertise"`
	TotalStudents     int               `json:"totalStudents"`
	TotalCourses      int               `json:"totalCourses"`
	AverageRating     float64           `json:"averageRating"`
	Verification      string            `json:"verification"`
	OnboardingAnswers map[string]string `json:"onboardingAnswers,omitempty"`
}

type StudentProfile struct {
	LearningGoals    []string    `json:"learningGoals"`
	CompletedCourses []uuid.UUID `json:"completedCourses"`
}

// Enrollment is a weak reference to a course the user joined.
type Enrollment struct {
	CourseID     uuid.UUID `json:"courseId"`
	Progress     int       `json:"progress"`
	LastAccessed time.Time `json:"lastAccessed"`
	EnrolledAt   time.Time `json:"enrolledAt"`
}

// PublicProfile is the owner view embedded in course responses.
type PublicProfile struct {
	ID           uuid.UUID `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Bio          string    `json:"bio"`
	ProfileImage string    `json:"profileImage"`
}

// AfterFind replaces JSON nulls with empty collections so responses stay stable.
func (u *User) AfterFind(*gorm.DB) error {
	u.normalize()
	return nil
}

func (u *User) normalize() {
	if u.EnrolledCourses == nil {
		u.EnrolledCourses = datatypes.JSONSlice[Enrollment]{}
	}
	if u.Wishlist == nil {
		u.Wishlist = datatypes.JSONSlice[uuid.UUID]{}
	}
	if u.EnrolledCategories == nil {
		u.EnrolledCategories = datatypes.JSONSlice[string]{}
	}
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// FindEnrollment returns the index of courseID in the enrollment list or -1.
func (u *User) FindEnrollment(courseID uuid.UUID) int {
	for i, e := range u.EnrolledCourses {
		if e.CourseID == courseID {
			return i
		}
	}
	return -1
}

// CreateInput carries data for creating a new user.
type CreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      types.Role
}

// UpdateInput captures mutable profile fields; nil leaves a field untouched.
type UpdateInput struct {
	FirstName     *string
	LastName      *string
	Bio           *string
	Headline      *string
	Expertise     *[]string
	LearningGoals *[]string
}

// OnboardingInput carries the answers collected by the onboarding flow.
type OnboardingInput struct {
	Answers       map[string]string
	Headline      *string
	Expertise     []string
	LearningGoals []string
}

// Get retrieves a user by ID.
func Get(db *gorm.DB, id uuid.UUID) (User, error) {
	var u User
	if err := db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return u, ErrUserNotFound
		}
		return u, err
	}
	return u, nil
}

// GetForUpdate loads the user row under a row lock. db must be a transaction.
func GetForUpdate(tx *gorm.DB, id uuid.UUID) (User, error) {
	return Get(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// GetByEmail retrieves a user by normalized email.
func GetByEmail(db *gorm.DB, email string) (User, error) {
	var u User
	if err := db.First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return u, ErrUserNotFound
		}
		return u, err
	}
	return u, nil
}

// PublicProfiles loads display fields for ids without touching the password column.
func PublicProfiles(db *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]PublicProfile, error) {
	out := make(map[uuid.UUID]PublicProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []PublicProfile
	err := db.Model(&User{}).
		Select("id", "first_name", "last_name", "email", "bio", "profile_image").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// enrollmentRow reads only the enrollment column of a user.
type enrollmentRow struct {
	EnrolledCourses datatypes.JSONSlice[Enrollment] `gorm:"column:enrolled_courses"`
}

func (enrollmentRow) TableName() string { return "users" }

// IsEnrolled reports whether userID holds an enrollment for courseID.
// Unknown users are not enrolled.
func IsEnrolled(db *gorm.DB, userID, courseID uuid.UUID) (bool, error) {
	var row enrollmentRow
	if err := db.Select("enrolled_courses").Take(&row, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, e := range row.EnrolledCourses {
		if e.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

// Create validates input, hashes the password and inserts the user with the profile for its role.
func Create(db *gorm.DB, input CreateInput) (User, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" || lastName == "" {
		return User{}, ErrNameRequired
	}
	if !validation.MaxRunes(firstName, maxNameLength) || !validation.MaxRunes(lastName, maxNameLength) {
		return User{}, ErrNameTooLong
	}

	email, err := validation.NormalizeEmail(input.Email)
	if err != nil {
		return User{}, ErrInvalidEmail
	}
	if len(input.Password) < 8 {
		return User{}, ErrInvalidPassword
	}

	role := input.Role
	if role == "" {
		role = types.RoleStudent
	}
	if !role.Valid() {
		return User{}, ErrInvalidRole
	}

	var existing int64
	if err := db.Model(&User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return User{}, err
	}
	if existing > 0 {
		return User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	u := User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  string(hash),
		Role:      role,
		IsActive:  true,
		Profile:   datatypes.NewJSONType(newProfile(role)),
	}
	u.normalize()

	if err := db.Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return u, nil
}

func newProfile(role types.Role) Profile {
	if role == types.RoleInstructor {
		return Profile{Instructor: &InstructorProfile{Expertise: []string{}, Verification: VerificationPending}}
	}
	return Profile{Student: &StudentProfile{LearningGoals: []string{}, CompletedCourses: []uuid.UUID{}}}
}

// RecordLogin stamps lastLogin and increments loginCount.
func RecordLogin(db *gorm.DB, id uuid.UUID, at time.Time) error {
	return db.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_login":  at,
		"login_count": gorm.Expr("login_count + ?", 1),
	}).Error
}

// Update applies a partial profile update and returns the stored user.
func Update(db *gorm.DB, id uuid.UUID, input UpdateInput) (User, error) {
	u, err := Get(db, id)
	if err != nil {
		return u, err
	}

	if input.FirstName != nil {
		u.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		u.LastName = strings.TrimSpace(*input.LastName)
	}
	if u.FirstName == "" || u.LastName == "" {
		return u, ErrNameRequired
	}
	if !validation.MaxRunes(u.FirstName, maxNameLength) || !validation.MaxRunes(u.LastName, maxNameLength) {
		return u, ErrNameTooLong
	}
	if input.Bio != nil {
		u.Bio = strings.TrimSpace(*input.Bio)
	}

	profile := u.Profile.Data()
	if input.Headline != nil || input.Expertise != nil {
		if profile.Instructor == nil {
			return u, ErrInstructorOnly
		}
		if input.Headline != nil {
			profile.Instructor.Headline = strings.TrimSpace(*input.Headline)
		}
		if input.Expertise != nil {
			profile.Instructor.Expertise = cleanList(*input.Expertise)
		}
	}
	if input.LearningGoals != nil {
		if profile.Student == nil {
			return u, ErrStudentOnly
		}
		profile.Student.LearningGoals = cleanList(*input.LearningGoals)
	}
	u.Profile = datatypes.NewJSONType(profile)

	err = db.Model(&u).Select("first_name", "last_name", "bio", "profile", "updated_at").Updates(&u).Error
	return u, err
}

// CompleteOnboarding stores onboarding answers and flags the user as onboarded.
func CompleteOnboarding(db *gorm.DB, id uuid.UUID, input OnboardingInput) (User, error) {
	u, err := Get(db, id)
	if err != nil {
		return u, err
	}
	if u.IsOnboarded {
		return u, ErrAlreadyOnboarded
	}

	profile := u.Profile.Data()
	switch {
	case profile.Instructor != nil:
		profile.Instructor.OnboardingAnswers = input.Answers
		if input.Headline != nil {
			profile.Instructor.Headline = strings.TrimSpace(*input.Headline)
		}
		if input.Expertise != nil {
			profile.Instructor.Expertise = cleanList(input.Expertise)
		}
	case profile.Student != nil:
		if input.LearningGoals != nil {
			profile.Student.LearningGoals = cleanList(input.LearningGoals)
		}
	}
	u.Profile = datatypes.NewJSONType(profile)
	u.IsOnboarded = true

	err = db.Model(&u).Select("profile", "is_onboarded", "updated_at").Updates(&u).Error
	return u, err
}

// Deactivate blocks future authentication. Users are never deleted.
func Deactivate(db *gorm.DB, id uuid.UUID) error {
	result := db.Model(&User{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetProfileImage stores the new avatar and returns the storage path of the one it replaced.
func SetProfileImage(db *gorm.DB, id uuid.UUID, url, path string) (previousPath string, err error) {
	u, err := Get(db, id)
	if err != nil {
		return "", err
	}

	previous := u.ProfileImagePath

	err = db.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"profile_image":      url,
		"profile_image_path": path,
	}).Error
	return previous, err
}

// SaveCollections persists the enrollment, wishlist and category lists plus the profile.
func SaveCollections(db *gorm.DB, u *User) error {
	u.normalize()
	return db.Model(u).
		Select("enrolled_courses", "wishlist", "enrolled_categories", "profile", "updated_at").
		Updates(u).Error
}

func cleanList(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[strings.ToLower(v)]; dup {
			continue
		}
		seen[strings.ToLower(v)] = struct{}{}
		out = append(out, v)
	}
	return out
}
