package searchrepo

import (
	"context"
	"errors"

	"github.com/txpress/taxi-api/internal/domain"
)

var ErrNotFound = errors.New("journey not found")

// Repository answers search queries over journeys joined with taxi data.
type Repository interface {
	// FindOpenByRoute returns open journeys from origin to destination,
	// ordered by departure schedule ascending (ties by journey ID).
	FindOpenByRoute(ctx context.Context, origin, destination domain.StandID) ([]domain.CandidateTaxi, error)

	// GetByJourney returns the candidate view of one journey, open or not.
	GetByJourney(ctx context.Context, id domain.JourneyID) (domain.CandidateTaxi, error)
}
