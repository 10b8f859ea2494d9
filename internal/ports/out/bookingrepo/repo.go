package bookingrepo

import (
	"context"
	"errors"

	"github.com/txpress/taxi-api/internal/domain"
)

var ErrUnknownJourney = errors.New("booking references unknown journey")

// Repository is the booking collaborator. Seat accounting lives elsewhere; the journey
// lifecycle only needs to know whether a journey is referenced.
type Repository interface {
	Create(ctx context.Context, b domain.Booking) error
	ExistsForJourney(ctx context.Context, journeyID domain.JourneyID) (bool, error)
}
