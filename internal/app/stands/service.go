package stands

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/txpress/taxi-api/internal/app/apperr"
	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/ports/out/standrepo"
)

// MaxBatch bounds how many stands one AddStands call may create.
const MaxBatch = 500

type Service struct {
	stands standrepo.Repository
	log    *zap.Logger

	newStandID func() domain.StandID
}

func NewService(repo standrepo.Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		stands: repo,
		log:    log.With(zap.String("component", "stands")),
		newStandID: func() domain.StandID {
			return domain.StandID(uuid.NewString())
		},
	}
}

// SetNewStandIDForTest overrides stand ID generation for deterministic tests.
func (s *Service) SetNewStandIDForTest(fn func() domain.StandID) {
	if fn != nil {
		s.newStandID = fn
	}
}

// AddStands creates one stand per name, all or nothing. Names are whitespace-normalized.
func (s *Service) AddStands(ctx context.Context, names []string) ([]domain.Stand, error) {
	if len(names) == 0 {
		return nil, apperr.Validation("at least one taxi rank is required", map[string]any{"taxi_ranks": "must be non-empty"})
	}
	if len(names) > MaxBatch {
		return nil, apperr.Validation("too many taxi ranks", map[string]any{"taxi_ranks": fmt.Sprintf("at most %d per request", MaxBatch)})
	}

	out := make([]domain.Stand, 0, len(names))
	for i, raw := range names {
		name := domain.NormalizeHumanName(raw)
		if name == "" {
			return nil, apperr.Validation("invalid taxi rank name", map[string]any{fmt.Sprintf("taxi_ranks[%d]", i): "must be non-empty"})
		}
		out = append(out, domain.Stand{ID: s.newStandID(), Name: name})
	}

	if err := s.stands.CreateMany(ctx, out); err != nil {
		return nil, s.internal("AddStands", err)
	}
	return out, nil
}

func (s *Service) ListStands(ctx context.Context) ([]domain.Stand, error) {
	out, err := s.stands.List(ctx)
	if err != nil {
		return nil, s.internal("ListStands", err)
	}
	return out, nil
}

func (s *Service) GetStand(ctx context.Context, id domain.StandID) (domain.Stand, error) {
	st, err := s.stands.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, standrepo.ErrNotFound) {
			return domain.Stand{}, apperr.NotFound(apperr.CodeUnknownStand, "Unknown taxi rank")
		}
		return domain.Stand{}, s.internal("GetStand", err)
	}
	return st, nil
}

func (s *Service) internal(op string, err error) error {
	s.log.Error("store failure", zap.String("op", op), zap.Error(err))
	return apperr.Internal(err)
}
