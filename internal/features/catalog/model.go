package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/features/course"
	"github.com/mo-amir99/coursehub-server-go/pkg/pagination"
)

const maxSearchLength = 100

// Filters narrows the public catalog. Empty fields are ignored.
type Filters struct {
	Category string
	Level    string
	Search   string
}

// Validate rejects unknown levels.
func (f Filters) Validate() error {
	if f.Level != "" && !course.ValidLevel(f.Level) {
		return ErrInvalidLevel
	}
	return nil
}

// cacheKey identifies a result page for the given catalog generation.
func (f Filters) cacheKey(generation int64, params pagination.Params) string {
	q := url.Values{}
	q.Set("category", f.Category)
	q.Set("level", f.Level)
	q.Set("search", strings.ToLower(f.Search))
	q.Set("page", strconv.Itoa(params.Page))
	q.Set("limit", strconv.Itoa(params.Limit))
	return "catalog:" + strconv.FormatInt(generation, 10) + ":" + q.Encode()
}

// Search lists published, active courses matching filters, newest first.
func Search(db *gorm.DB, filters Filters, params pagination.Params) ([]course.Course, int64, error) {
	query := db.Model(&course.Course{}).
		Where("status = ? AND is_active = ?", course.StatusPublished, true)

	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Level != "" {
		query = query.Where("level = ?", filters.Level)
	}
	if filters.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(filters.Search)) + "%"
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []course.Course
	err := query.
		Order("created_at DESC").
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&courses).Error
	return courses, total, err
}

// Categories returns the distinct categories that currently have visible courses.
func Categories(db *gorm.DB) ([]string, error) {
	var categories []string
	err := db.Model(&course.Course{}).
		Where("status = ? AND is_active = ?", course.StatusPublished, true).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
