package searches

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/txpress/taxi-api/internal/app/apperr"
	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/platform/metrics"
	"github.com/txpress/taxi-api/internal/ports/out/searchrepo"
	"github.com/txpress/taxi-api/internal/ports/out/standrepo"
)

// Service runs rider searches. It holds no search state: every call receives the
// client-held session decoded by the caller, or nil when absent or invalid.
type Service struct {
	search  searchrepo.Repository
	stands  standrepo.Repository
	log     *zap.Logger
	metrics *metrics.Metrics

	newSearchID func() domain.SearchID
}

func NewService(search searchrepo.Repository, stands standrepo.Repository, log *zap.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		search:  search,
		stands:  stands,
		log:     log.With(zap.String("component", "searches")),
		metrics: m,
		newSearchID: func() domain.SearchID {
			return domain.SearchID(uuid.NewString())
		},
	}
}

// SetNewSearchIDForTest overrides search ID generation for deterministic tests.
func (s *Service) SetNewSearchIDForTest(fn func() domain.SearchID) {
	if fn != nil {
		s.newSearchID = fn
	}
}

func unknownSearch() error {
	return apperr.NotFound(apperr.CodeUnknownSearch, "Unknown search")
}

func session(id domain.SearchID, sess *domain.SearchSession) (domain.SearchSession, error) {
	if sess == nil || sess.ID != id {
		return domain.SearchSession{}, unknownSearch()
	}
	return *sess, nil
}

// PerformSearch starts a search between two stands.
func (s *Service) PerformSearch(ctx context.Context, c domain.SearchCriteria) (domain.SearchSession, error) {
	details := map[string]any{}
	if c.DepartureStandID == "" {
		details["departure_id"] = "required"
	}
	if c.ArrivalStandID == "" {
		details["arrival_id"] = "required"
	}
	if len(details) > 0 {
		return domain.SearchSession{}, apperr.Validation("invalid search criteria", details)
	}
	// The session keeps stored stand ids so later comparisons with journeys are exact.
	for _, id := range []*domain.StandID{&c.DepartureStandID, &c.ArrivalStandID} {
		st, err := s.stands.GetByID(ctx, *id)
		if err != nil {
			if errors.Is(err, standrepo.ErrNotFound) {
				return domain.SearchSession{}, apperr.InvalidRequest(apperr.CodeUnknownStand, "Unknown taxi rank")
			}
			return domain.SearchSession{}, s.internal("PerformSearch", err)
		}
		*id = st.ID
	}
	if c.DepartureStandID == c.ArrivalStandID {
		return domain.SearchSession{}, apperr.Validation("departure and arrival must differ", map[string]any{"arrival_id": "must differ from departure_id"})
	}

	s.metrics.IncSearch()
	return domain.SearchSession{ID: s.newSearchID(), Criteria: c}, nil
}

func (s *Service) GetSearch(_ context.Context, id domain.SearchID, sess *domain.SearchSession) (domain.SearchSession, error) {
	return session(id, sess)
}

// ListCandidateTaxis returns open journeys on the searched route, earliest departure first.
func (s *Service) ListCandidateTaxis(ctx context.Context, id domain.SearchID, sess *domain.SearchSession) ([]domain.CandidateTaxi, error) {
	cur, err := session(id, sess)
	if err != nil {
		return nil, err
	}
	out, err := s.search.FindOpenByRoute(ctx, cur.Criteria.DepartureStandID, cur.Criteria.ArrivalStandID)
	if err != nil {
		return nil, s.internal("ListCandidateTaxis", err)
	}
	return out, nil
}

// SelectTaxi records the rider's choice on the session and returns the updated session.
// Nothing is reserved; the selection only has to be consistent with live data now.
func (s *Service) SelectTaxi(ctx context.Context, id domain.SearchID, sess *domain.SearchSession, number domain.TaxiNumber, seats int, journeyID domain.JourneyID) (domain.SearchSession, error) {
	cur, err := session(id, sess)
	if err != nil {
		return domain.SearchSession{}, err
	}
	if seats < 1 {
		return domain.SearchSession{}, apperr.Validation("invalid seat count", map[string]any{"seats": "must be at least 1"})
	}

	c, err := s.search.GetByJourney(ctx, journeyID)
	if err != nil {
		if errors.Is(err, searchrepo.ErrNotFound) {
			return domain.SearchSession{}, apperr.InvalidRequest(apperr.CodeUnknownJourney, "Unknown journey")
		}
		return domain.SearchSession{}, s.internal("SelectTaxi", err)
	}

	number = domain.NormalizeTaxiNumber(string(number))
	switch {
	case c.Closed:
		return domain.SearchSession{}, apperr.InvalidRequest(apperr.CodeValidation, "Journey is closed")
	case c.Number != number:
		return domain.SearchSession{}, apperr.InvalidRequest(apperr.CodeValidation, "Journey does not belong to this taxi")
	case c.Origin != cur.Criteria.DepartureStandID || c.Destination != cur.Criteria.ArrivalStandID:
		return domain.SearchSession{}, apperr.InvalidRequest(apperr.CodeValidation, "Journey does not match the search")
	case seats > c.AvailableSeats():
		return domain.SearchSession{}, apperr.Validation("not enough seats available", map[string]any{"seats": c.AvailableSeats()})
	}

	cur.Selection = &domain.SearchSelection{TaxiNumber: number, JourneyID: journeyID, SeatCount: seats}
	s.metrics.IncSelection()
	return cur, nil
}

// GetSelection resolves the session's selection against live taxi data.
func (s *Service) GetSelection(ctx context.Context, id domain.SearchID, sess *domain.SearchSession) (domain.SelectionView, error) {
	cur, err := session(id, sess)
	if err != nil {
		return domain.SelectionView{}, err
	}
	if cur.Selection == nil {
		return domain.SelectionView{}, apperr.NotFound(apperr.CodeNoSelection, "No taxi selected yet")
	}
	c, err := s.search.GetByJourney(ctx, cur.Selection.JourneyID)
	if err != nil {
		if errors.Is(err, searchrepo.ErrNotFound) {
			return domain.SelectionView{}, apperr.NotFound(apperr.CodeUnknownJourney, "Selected journey no longer exists")
		}
		return domain.SelectionView{}, s.internal("GetSelection", err)
	}
	return domain.SelectionView{SearchID: cur.ID, Taxi: c, Seats: cur.Selection.SeatCount}, nil
}

func (s *Service) internal(op string, err error) error {
	s.log.Error("store failure", zap.String("op", op), zap.Error(err))
	return apperr.Internal(err)
}
