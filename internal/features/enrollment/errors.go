package enrollment

import "errors"

var (
	ErrCourseUnavailable = errors.New("course not found or not published")
	ErrNotEnrolled       = errors.New("not enrolled in this course")
	ErrInvalidProgress   = errors.New("progress must be between 0 and 100")
)
