package journeyrepo

import (
	"context"

	"github.com/txpress/taxi-api/internal/domain"
)

// Repository provides access to persisted journeys.
//
// Invariant: at most one journey with Closed=false exists per owner. Create must enforce it
// atomically (not by a separate read), returning ErrInProgress to the losing writer.
type Repository interface {
	Create(ctx context.Context, j domain.Journey) error

	GetByID(ctx context.Context, id domain.JourneyID) (domain.Journey, error)

	// GetInProgress returns the owner's open journey, or ErrNotFound.
	GetInProgress(ctx context.Context, owner domain.TaxiNumber) (domain.Journey, error)
	HasInProgress(ctx context.Context, owner domain.TaxiNumber) (bool, error)

	// ListByOwner returns the owner's journeys, newest departure first (ties by ID).
	ListByOwner(ctx context.Context, owner domain.TaxiNumber) ([]domain.Journey, error)

	// Close marks the journey closed. Closing a closed journey is a no-op.
	Close(ctx context.Context, id domain.JourneyID) error

	// Delete removes the journey. ErrHasBookings is returned if storage detects a referencing booking.
	Delete(ctx context.Context, id domain.JourneyID) error
}
