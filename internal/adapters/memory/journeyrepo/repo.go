package journeyrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/ports/out/journeyrepo"
)

// Repo is an in-memory implementation of journeyrepo.Repository.
// It is safe for concurrent use.
//
// The one-open-journey-per-owner rule is checked and applied under a single lock in Create.
// Bookings are tracked as reference counts so Delete behaves like a foreign key without cascade.
type Repo struct {
	mu sync.RWMutex

	byID   map[domain.JourneyID]domain.Journey
	open   map[domain.TaxiNumber]domain.JourneyID
	refcnt map[domain.JourneyID]int
}

func NewRepo() *Repo {
	return &Repo{
		byID:   make(map[domain.JourneyID]domain.Journey),
		open:   make(map[domain.TaxiNumber]domain.JourneyID),
		refcnt: make(map[domain.JourneyID]int),
	}
}

func (r *Repo) Create(ctx context.Context, j domain.Journey) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[j.ID]; ok {
		return journeyrepo.ErrAlreadyExists
	}
	if !j.Closed {
		if _, ok := r.open[j.OwnerNumber]; ok {
			return journeyrepo.ErrInProgress
		}
		r.open[j.OwnerNumber] = j.ID
	}
	r.byID[j.ID] = j
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.JourneyID) (domain.Journey, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.byID[id]
	if !ok {
		return domain.Journey{}, journeyrepo.ErrNotFound
	}
	return j, nil
}

func (r *Repo) GetInProgress(ctx context.Context, owner domain.TaxiNumber) (domain.Journey, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.open[owner]
	if !ok {
		return domain.Journey{}, journeyrepo.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *Repo) HasInProgress(ctx context.Context, owner domain.TaxiNumber) (bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.open[owner]
	return ok, nil
}

func (r *Repo) ListByOwner(ctx context.Context, owner domain.TaxiNumber) ([]domain.Journey, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]domain.Journey, 0)
	for _, j := range r.byID {
		if j.OwnerNumber == owner {
			out = append(out, j)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, k int) bool {
		if !out[i].DepartureSchedule.Equal(out[k].DepartureSchedule) {
			return out[i].DepartureSchedule.After(out[k].DepartureSchedule)
		}
		return out[i].ID < out[k].ID
	})
	return out, nil
}

func (r *Repo) Close(ctx context.Context, id domain.JourneyID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.byID[id]
	if !ok {
		return journeyrepo.ErrNotFound
	}
	if j.Closed {
		return nil
	}
	j.Closed = true
	r.byID[id] = j
	if r.open[j.OwnerNumber] == id {
		delete(r.open, j.OwnerNumber)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.JourneyID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.byID[id]
	if !ok {
		return journeyrepo.ErrNotFound
	}
	if r.refcnt[id] > 0 {
		return journeyrepo.ErrHasBookings
	}
	delete(r.byID, id)
	if r.open[j.OwnerNumber] == id {
		delete(r.open, j.OwnerNumber)
	}
	return nil
}

// AddReservation records a booking of seats against the journey, as a foreign key would.
func (r *Repo) AddReservation(id domain.JourneyID, seats int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.byID[id]
	if !ok {
		return journeyrepo.ErrNotFound
	}
	j.ReservedSeats += seats
	r.byID[id] = j
	r.refcnt[id]++
	return nil
}

// ListAll returns every stored journey in no particular order.
func (r *Repo) ListAll() []domain.Journey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Journey, 0, len(r.byID))
	for _, j := range r.byID {
		out = append(out, j)
	}
	return out
}
