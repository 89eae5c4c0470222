package catalog

import "errors"

var ErrInvalidLevel = errors.New("level must be one of: Beginner, Intermediate, Advanced, All Levels")
