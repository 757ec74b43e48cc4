package ledger

import "errors"

var (
	// ErrDuplicateUser is returned when registering an email that already exists.
	ErrDuplicateUser = errors.New("user already registered")
	// ErrUnknownUser is returned when a ledger operation names an unregistered email.
	ErrUnknownUser = errors.New("user not registered")
	// ErrUserNotFound is returned by user lookups.
	ErrUserNotFound = errors.New("user not found")

	ErrInvalidUser  = errors.New("name, email and password are required")
	ErrInvalidHour  = errors.New("invalid hour label")
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidKind  = errors.New("invalid ledger kind")
	ErrInvalidValue = errors.New("invalid reading value")
)
