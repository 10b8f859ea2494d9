package journeys

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/txpress/taxi-api/internal/app/apperr"
	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/platform/metrics"
	"github.com/txpress/taxi-api/internal/ports/out/bookingrepo"
	"github.com/txpress/taxi-api/internal/ports/out/journeyrepo"
	"github.com/txpress/taxi-api/internal/ports/out/standrepo"
)

type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// OwnershipCheck makes cancel/close of another taxi's journey report NotFound.
	OwnershipCheck bool
}

type Service struct {
	journeys journeyrepo.Repository
	bookings bookingrepo.Repository
	stands   standrepo.Repository

	log            *zap.Logger
	metrics        *metrics.Metrics
	ownershipCheck bool

	newJourneyID func() domain.JourneyID
}

func NewService(journeys journeyrepo.Repository, bookings bookingrepo.Repository, stands standrepo.Repository, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		journeys:       journeys,
		bookings:       bookings,
		stands:         stands,
		log:            log.With(zap.String("component", "journeys")),
		metrics:        opts.Metrics,
		ownershipCheck: opts.OwnershipCheck,
		newJourneyID: func() domain.JourneyID {
			return domain.JourneyID(uuid.NewString())
		},
	}
}

// SetNewJourneyIDForTest overrides journey ID generation for deterministic tests.
func (s *Service) SetNewJourneyIDForTest(fn func() domain.JourneyID) {
	if fn != nil {
		s.newJourneyID = fn
	}
}

func unknownJourney() error {
	return apperr.NotFound(apperr.CodeUnknownJourney, "Unknown journey")
}

func inProgress() error {
	return apperr.InvalidRequest(apperr.CodeJourneyInProgress, "Journey already in progress")
}

// StartJourney opens a journey for the authenticated taxi.
func (s *Service) StartJourney(ctx context.Context, auth domain.AuthSession, number domain.TaxiNumber, c domain.JourneyCriteria) (domain.Journey, error) {
	if !auth.Covers(number) {
		return domain.Journey{}, apperr.Unauthorized()
	}
	owner := auth.TaxiNumber

	if c.DepartureSchedule.IsZero() {
		return domain.Journey{}, apperr.Validation("invalid departure schedule", map[string]any{"departure_schedule": "required"})
	}
	// Journeys carry the stored stand ids, not the caller's spelling of them.
	for _, id := range []*domain.StandID{&c.Origin, &c.Destination} {
		st, err := s.stands.GetByID(ctx, *id)
		if err != nil {
			if errors.Is(err, standrepo.ErrNotFound) {
				return domain.Journey{}, apperr.InvalidRequest(apperr.CodeUnknownStand, "Unknown taxi rank")
			}
			return domain.Journey{}, s.internal("StartJourney.stand", err)
		}
		*id = st.ID
	}
	if c.Origin == c.Destination {
		return domain.Journey{}, apperr.Validation("departure and arrival must differ", map[string]any{"arrival_id": "must differ from departure_id"})
	}

	// Fast path only; Create decides under concurrency.
	busy, err := s.journeys.HasInProgress(ctx, owner)
	if err != nil {
		return domain.Journey{}, s.internal("StartJourney.inProgress", err)
	}
	if busy {
		s.metrics.IncJourneyStartConflict()
		return domain.Journey{}, inProgress()
	}

	j := domain.Journey{
		ID:                s.newJourneyID(),
		OwnerNumber:       owner,
		Origin:            c.Origin,
		Destination:       c.Destination,
		DepartureSchedule: c.DepartureSchedule.UTC(),
	}
	if err := s.journeys.Create(ctx, j); err != nil {
		switch {
		case errors.Is(err, journeyrepo.ErrInProgress):
			s.metrics.IncJourneyStartConflict()
			return domain.Journey{}, inProgress()
		case errors.Is(err, journeyrepo.ErrInvalidReference):
			return domain.Journey{}, apperr.InvalidRequest(apperr.CodeUnknownStand, "Unknown taxi rank")
		default:
			return domain.Journey{}, s.internal("StartJourney", err)
		}
	}

	s.metrics.IncJourneyStarted()
	s.log.Info("journey started", zap.String("number", string(owner)), zap.String("journey_id", string(j.ID)))
	return j, nil
}

func (s *Service) GetJourney(ctx context.Context, id domain.JourneyID) (domain.Journey, error) {
	j, err := s.journeys.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, journeyrepo.ErrNotFound) {
			return domain.Journey{}, unknownJourney()
		}
		return domain.Journey{}, s.internal("GetJourney", err)
	}
	return j, nil
}

func (s *Service) GetInProgressJourney(ctx context.Context, auth domain.AuthSession, number domain.TaxiNumber) (domain.Journey, error) {
	if !auth.Covers(number) {
		return domain.Journey{}, apperr.Unauthorized()
	}
	j, err := s.journeys.GetInProgress(ctx, auth.TaxiNumber)
	if err != nil {
		if errors.Is(err, journeyrepo.ErrNotFound) {
			return domain.Journey{}, apperr.NotFound(apperr.CodeNoActiveJourney, "No journey in progress")
		}
		return domain.Journey{}, s.internal("GetInProgressJourney", err)
	}
	return j, nil
}

func (s *Service) HasJourneyInProgress(ctx context.Context, number domain.TaxiNumber) (bool, error) {
	ok, err := s.journeys.HasInProgress(ctx, domain.NormalizeTaxiNumber(string(number)))
	if err != nil {
		return false, s.internal("HasJourneyInProgress", err)
	}
	return ok, nil
}

// ListJourneys returns the taxi's journeys, newest departure first.
func (s *Service) ListJourneys(ctx context.Context, auth domain.AuthSession, number domain.TaxiNumber) ([]domain.Journey, error) {
	if !auth.Covers(number) {
		return nil, apperr.Unauthorized()
	}
	out, err := s.journeys.ListByOwner(ctx, auth.TaxiNumber)
	if err != nil {
		return nil, s.internal("ListJourneys", err)
	}
	return out, nil
}

// CancelJourney deletes a journey nobody has booked.
func (s *Service) CancelJourney(ctx context.Context, auth domain.AuthSession, number domain.TaxiNumber, id domain.JourneyID) error {
	if _, err := s.ownedJourney(ctx, auth, number, id, "CancelJourney"); err != nil {
		return err
	}

	booked, err := s.bookings.ExistsForJourney(ctx, id)
	if err != nil {
		return s.internal("CancelJourney.bookings", err)
	}
	if booked {
		return apperr.InvalidRequest(apperr.CodeHasBookings, "Journey has bookings and cannot be cancelled")
	}

	if err := s.journeys.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, journeyrepo.ErrHasBookings):
			return apperr.InvalidRequest(apperr.CodeHasBookings, "Journey has bookings and cannot be cancelled")
		case errors.Is(err, journeyrepo.ErrNotFound):
			return unknownJourney()
		default:
			return s.internal("CancelJourney", err)
		}
	}

	s.metrics.IncJourneyCancelled()
	s.log.Info("journey cancelled", zap.String("number", string(auth.TaxiNumber)), zap.String("journey_id", string(id)))
	return nil
}

// CloseJourney marks a journey closed. Closing a closed journey succeeds.
func (s *Service) CloseJourney(ctx context.Context, auth domain.AuthSession, number domain.TaxiNumber, id domain.JourneyID) error {
	j, err := s.ownedJourney(ctx, auth, number, id, "CloseJourney")
	if err != nil {
		return err
	}
	if err := s.journeys.Close(ctx, id); err != nil {
		if errors.Is(err, journeyrepo.ErrNotFound) {
			return unknownJourney()
		}
		return s.internal("CloseJourney", err)
	}
	if !j.Closed {
		s.metrics.IncJourneyClosed()
	}
	return nil
}

func (s *Service) ownedJourney(ctx context.Context, auth domain.AuthSession, number domain.TaxiNumber, id domain.JourneyID, op string) (domain.Journey, error) {
	if !auth.Covers(number) {
		return domain.Journey{}, apperr.Unauthorized()
	}
	j, err := s.journeys.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, journeyrepo.ErrNotFound) {
			return domain.Journey{}, unknownJourney()
		}
		return domain.Journey{}, s.internal(op+".get", err)
	}
	if s.ownershipCheck && j.OwnerNumber != auth.TaxiNumber {
		return domain.Journey{}, unknownJourney()
	}
	return j, nil
}

func (s *Service) internal(op string, err error) error {
	s.log.Error("store failure", zap.String("op", op), zap.Error(err))
	return apperr.Internal(err)
}
