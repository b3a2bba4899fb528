package entities

import "errors"

var (
	// ErrMissingTargetTimestamp is returned when a rewind-complete activity
	// has no target timestamp.
	ErrMissingTargetTimestamp = errors.New("rewind-complete activity is missing its target timestamp")

	// ErrActivityNotFound is returned when a lookup by ID finds nothing.
	ErrActivityNotFound = errors.New("activity not found")

	// ErrTimestampOutOfRange is returned when a time cannot be stored as
	// Unix nanoseconds (before 1677 or after 2262).
	ErrTimestampOutOfRange = errors.New("timestamp outside the storable range")

	// ErrSiteRequired is returned when a command needs a site and none was given.
	ErrSiteRequired = errors.New("site is required (use --site flag)")
)
