package course

import (
	"errors"
	"strings"

	"github.com/mo-amir99/coursehub-server-go/pkg/validation"
)

var (
	ErrCourseNotFound    = errors.New("course not found")
	ErrNotOwner          = errors.New("only the course owner can perform this action")
	ErrRevisionConflict  = errors.New("course was modified by another request; reload and try again")
	ErrInvalidTransition = errors.New("status transition is not allowed")
	ErrImmutableField    = errors.New("status and instructorId cannot be changed through update")
	ErrInvalidCourse     = errors.New("invalid course data")
	ErrInvalidCurriculum = errors.New("invalid curriculum")
)

// ValidationError carries itemized field messages for ErrInvalidCourse or ErrInvalidCurriculum.
type ValidationError struct {
	kind   error
	Fields validation.Errors
}

func (e *ValidationError) Error() string {
	return e.kind.Error() + ": " + strings.Join(e.Fields, "; ")
}

func (e *ValidationError) Unwrap() error { return e.kind }
