package user

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already exists")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrInvalidPassword  = errors.New("password must be at least 8 characters")
	ErrNameRequired     = errors.New("first and last name are required")
	ErrNameTooLong      = errors.New("names must be at most 50 characters")
	ErrInvalidRole      = errors.New("role must be student or instructor")
	ErrInstructorOnly   = errors.New("field is only available to instructors")
	ErrStudentOnly      = errors.New("field is only available to students")
	ErrAlreadyOnboarded = errors.New("onboarding already completed")
)
