package wishlist

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/features/course"
	"github.com/mo-amir99/coursehub-server-go/internal/features/user"
)

// Add puts courseID on the user's wishlist. The course must be published and
// active; adding a course that is already present changes nothing.
func Add(db *gorm.DB, userID, courseID uuid.UUID) (added bool, err error) {
	if _, err := course.GetVisible(db, courseID); err != nil {
		if errors.Is(err, course.ErrCourseNotFound) {
			return false, ErrCourseUnavailable
		}
		return false, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		u, err := user.GetForUpdate(tx, userID)
		if err != nil {
			return err
		}
		if indexOf(u.Wishlist, courseID) >= 0 {
			return nil
		}
		u.Wishlist = append(u.Wishlist, courseID)
		added = true
		return user.SaveCollections(tx, &u)
	})
	return added, err
}

// Remove drops courseID from the wishlist. Removing an absent id is not an error.
func Remove(db *gorm.DB, userID, courseID uuid.UUID) (removed bool, err error) {
	err = db.Transaction(func(tx *gorm.DB) error {
		u, err := user.GetForUpdate(tx, userID)
		if err != nil {
			return err
		}
		i := indexOf(u.Wishlist, courseID)
		if i < 0 {
			return nil
		}
		u.Wishlist = append(u.Wishlist[:i], u.Wishlist[i+1:]...)
		removed = true
		return user.SaveCollections(tx, &u)
	})
	return removed, err
}

// Contains reports whether courseID is on the user's wishlist, regardless of
// the course's current status.
func Contains(db *gorm.DB, userID, courseID uuid.UUID) (bool, error) {
	u, err := user.Get(db, userID)
	if err != nil {
		return false, err
	}
	return indexOf(u.Wishlist, courseID) >= 0, nil
}

// List resolves the wishlist against live courses, keeping wishlist order.
// Ids whose course was deleted, unpublished or deactivated are skipped.
func List(db *gorm.DB, userID uuid.UUID) ([]course.Summary, error) {
	u, err := user.Get(db, userID)
	if err != nil {
		return nil, err
	}
	if len(u.Wishlist) == 0 {
		return []course.Summary{}, nil
	}

	courses, err := course.ListByIDs(db, u.Wishlist)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]course.Course, len(courses))
	for _, c := range courses {
		if c.Visible() {
			byID[c.ID] = c
		}
	}

	ordered := make([]course.Course, 0, len(byID))
	for _, id := range u.Wishlist {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return course.Summaries(db, ordered)
}

func indexOf(ids []uuid.UUID, id uuid.UUID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
