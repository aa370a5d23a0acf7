package errors

import "errors"

var (
	ErrNotFound = errors.New("category not found")

	ErrInvalidID = errors.New("invalid category ID format")

	ErrDuplicateName = errors.New("category name already exists")
)
