package bookingrepo

import (
	"context"
	"errors"
	"sync"

	journeymem "github.com/txpress/taxi-api/internal/adapters/memory/journeyrepo"
	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/ports/out/bookingrepo"
	"github.com/txpress/taxi-api/internal/ports/out/journeyrepo"
)

// Repo is an in-memory implementation of bookingrepo.Repository backed by a memory journey repo.
// It is safe for concurrent use.
type Repo struct {
	journeys *journeymem.Repo

	mu        sync.RWMutex
	byJourney map[domain.JourneyID][]domain.Booking
}

func NewRepo(journeys *journeymem.Repo) *Repo {
	return &Repo{
		journeys:  journeys,
		byJourney: make(map[domain.JourneyID][]domain.Booking),
	}
}

func (r *Repo) Create(ctx context.Context, b domain.Booking) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.journeys.AddReservation(b.JourneyID, b.ReservedSeats); err != nil {
		if errors.Is(err, journeyrepo.ErrNotFound) {
			return bookingrepo.ErrUnknownJourney
		}
		return err
	}
	r.byJourney[b.JourneyID] = append(r.byJourney[b.JourneyID], b)
	return nil
}

func (r *Repo) ExistsForJourney(ctx context.Context, journeyID domain.JourneyID) (bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byJourney[journeyID]) > 0, nil
}
