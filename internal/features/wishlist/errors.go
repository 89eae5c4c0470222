package wishlist

import "errors"

var ErrCourseUnavailable = errors.New("course not found or not published")
