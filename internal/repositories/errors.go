package repositories

import "errors"

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrConflict is returned when an id or email is already taken by another user.
	ErrConflict = errors.New("user already exists")
)
