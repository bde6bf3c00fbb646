package models

import "errors"

var (
	// ErrDuplicateID is returned by a store when a reminder id already exists.
	ErrDuplicateID = errors.New("reminder id already exists")

	// ErrNotFound is returned when no matching active reminder exists.
	ErrNotFound = errors.New("reminder not found")

	// ErrUnavailable signals that the reminder store cannot be reached right now.
	ErrUnavailable = errors.New("reminder store temporarily unavailable")

	// ErrInvalidRecurrence is returned for recurrence values outside the enumerated set.
	ErrInvalidRecurrence = errors.New("invalid recurrence")
)
