package course

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/features/user"
)

// Detail is a course with the owner's display fields denormalized in.
type Detail struct {
	Course
	Instructor *user.PublicProfile `json:"instructor"`
}

// Summary is the catalog card for a course; the curriculum is left out.
type Summary struct {
	ID             uuid.UUID           `json:"id"`
	Title          string              `json:"title"`
	Subtitle       string              `json:"subtitle"`
	CourseType     CourseType          `json:"courseType"`
	Category       string              `json:"category"`
	Level          string              `json:"level"`
	Language       string              `json:"language"`
	TimeCommitment string              `json:"timeCommitment"`
	Price          string              `json:"price"`
	Thumbnail      string              `json:"thumbnail"`
	Status         Status              `json:"status"`
	Rating         float64             `json:"rating"`
	TotalRatings   int                 `json:"totalRatings"`
	TotalStudents  int                 `json:"totalStudents"`
	TotalLectures  int                 `json:"totalLectures"`
	TotalDuration  int                 `json:"totalDuration"`
	Instructor     *user.PublicProfile `json:"instructor"`
}

// Summarize projects c into a catalog card.
func Summarize(c Course, instructor *user.PublicProfile) Summary {
	return Summary{
		ID:             c.ID,
		Title:          c.Title,
		Subtitle:       c.Subtitle,
		CourseType:     c.CourseType,
		Category:       c.Category,
		Level:          c.Level,
		Language:       c.Language,
		TimeCommitment: c.TimeCommitment,
		Price:          c.Price.String(),
		Thumbnail:      c.Thumbnail,
		Status:         c.Status,
		Rating:         c.Rating,
		TotalRatings:   c.TotalRatings,
		TotalStudents:  c.TotalStudents,
		TotalLectures:  c.TotalLectures,
		TotalDuration:  c.TotalDuration,
		Instructor:     instructor,
	}
}

// Summaries projects courses into catalog cards with their instructors resolved in one query.
func Summaries(db *gorm.DB, courses []Course) ([]Summary, error) {
	profiles, err := instructorProfiles(db, courses)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(courses))
	for _, c := range courses {
		out = append(out, Summarize(c, lookup(profiles, c.InstructorID)))
	}
	return out, nil
}

// BuildDetail attaches the owner's display fields. When fullAccess is false,
// payloads of non-preview items are stripped from a copy of the tree.
func BuildDetail(db *gorm.DB, c Course, fullAccess bool) (Detail, error) {
	profiles, err := user.PublicProfiles(db, []uuid.UUID{c.InstructorID})
	if err != nil {
		return Detail{}, err
	}
	if !fullAccess {
		c.Sections = previewOnly(c.Sections)
	}
	return Detail{Course: c, Instructor: lookup(profiles, c.InstructorID)}, nil
}

func previewOnly(sections []Section) []Section {
	out := make([]Section, len(sections))
	for i, s := range sections {
		contents := make([]Content, len(s.Contents))
		for j, c := range s.Contents {
			if !c.IsPreview {
				c.stripPayload()
			}
			contents[j] = c
		}
		s.Contents = contents
		out[i] = s
	}
	return out
}

func instructorProfiles(db *gorm.DB, courses []Course) (map[uuid.UUID]user.PublicProfile, error) {
	seen := make(map[uuid.UUID]struct{}, len(courses))
	ids := make([]uuid.UUID, 0, len(courses))
	for _, c := range courses {
		if _, ok := seen[c.InstructorID]; ok {
			continue
		}
		seen[c.InstructorID] = struct{}{}
		ids = append(ids, c.InstructorID)
	}
	return user.PublicProfiles(db, ids)
}

func lookup(profiles map[uuid.UUID]user.PublicProfile, id uuid.UUID) *user.PublicProfile {
	p, ok := profiles[id]
	if !ok {
		return nil
	}
	return &p
}
