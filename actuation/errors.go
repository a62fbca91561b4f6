package actuation

import "errors"

var (
	// ErrInvalidSpeed is returned when a negative forward speed is reported.
	ErrInvalidSpeed = errors.New("actuation: forward speed cannot be negative")

	// ErrClosed is returned by Start after the controller has been closed.
	ErrClosed = errors.New("actuation: controller closed")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("actuation: controller already started")
)
