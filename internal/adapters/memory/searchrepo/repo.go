package searchrepo

import (
	"context"
	"errors"
	"sort"

	journeymem "github.com/txpress/taxi-api/internal/adapters/memory/journeyrepo"
	taximem "github.com/txpress/taxi-api/internal/adapters/memory/taxirepo"
	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/ports/out/journeyrepo"
	"github.com/txpress/taxi-api/internal/ports/out/searchrepo"
	"github.com/txpress/taxi-api/internal/ports/out/taxirepo"
)

// Repo answers search queries by joining the memory journey and taxi repos.
type Repo struct {
	journeys *journeymem.Repo
	taxis    *taximem.Repo
}

func NewRepo(journeys *journeymem.Repo, taxis *taximem.Repo) *Repo {
	return &Repo{journeys: journeys, taxis: taxis}
}

func (r *Repo) FindOpenByRoute(ctx context.Context, origin, destination domain.StandID) ([]domain.CandidateTaxi, error) {
	out := make([]domain.CandidateTaxi, 0)
	for _, j := range r.journeys.ListAll() {
		if j.Closed || j.Origin != origin || j.Destination != destination {
			continue
		}
		c, err := r.candidate(ctx, j)
		if err != nil {
			// A journey whose taxi vanished would be dropped by an inner join.
			if errors.Is(err, taxirepo.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, k int) bool {
		if !out[i].DepartureSchedule.Equal(out[k].DepartureSchedule) {
			return out[i].DepartureSchedule.Before(out[k].DepartureSchedule)
		}
		return out[i].JourneyID < out[k].JourneyID
	})
	return out, nil
}

func (r *Repo) GetByJourney(ctx context.Context, id domain.JourneyID) (domain.CandidateTaxi, error) {
	j, err := r.journeys.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, journeyrepo.ErrNotFound) {
			return domain.CandidateTaxi{}, searchrepo.ErrNotFound
		}
		return domain.CandidateTaxi{}, err
	}
	c, err := r.candidate(ctx, j)
	if err != nil {
		if errors.Is(err, taxirepo.ErrNotFound) {
			return domain.CandidateTaxi{}, searchrepo.ErrNotFound
		}
		return domain.CandidateTaxi{}, err
	}
	return c, nil
}

func (r *Repo) candidate(ctx context.Context, j domain.Journey) (domain.CandidateTaxi, error) {
	t, err := r.taxis.GetByNumber(ctx, j.OwnerNumber)
	if err != nil {
		return domain.CandidateTaxi{}, err
	}
	return domain.CandidateTaxi{
		JourneyID:         j.ID,
		Number:            t.Number,
		Brand:             t.Brand,
		SeatCount:         t.SeatCount,
		DepartureSchedule: j.DepartureSchedule,
		ReservedSeats:     j.ReservedSeats,
		Closed:            j.Closed,
		Origin:            j.Origin,
		Destination:       j.Destination,
	}, nil
}
