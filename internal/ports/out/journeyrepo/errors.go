package journeyrepo

import "errors"

var (
	ErrNotFound      = errors.New("journey not found")
	ErrAlreadyExists = errors.New("journey already exists")

	// ErrInProgress indicates the owner already has an open journey.
	ErrInProgress = errors.New("journey already in progress")

	// ErrHasBookings indicates a booking references the journey.
	ErrHasBookings = errors.New("journey has bookings")

	// ErrInvalidReference indicates an unknown owner or stand.
	ErrInvalidReference = errors.New("journey references unknown taxi or stand")
)
