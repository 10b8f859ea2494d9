package taxis

import (
	"context"
	"errors"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/txpress/taxi-api/internal/app/apperr"
	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/platform/metrics"
	"github.com/txpress/taxi-api/internal/ports/out/credential"
	"github.com/txpress/taxi-api/internal/ports/out/taxirepo"
)

const invalidCredentialsMessage = "Invalid taxi number or password"

type Service struct {
	taxis   taxirepo.Repository
	hasher  credential.Hasher
	log     *zap.Logger
	metrics *metrics.Metrics

	newTaxiID         func() domain.TaxiID
	newRegistrationID func() domain.RegistrationID

	dummyOnce   sync.Once
	dummyDigest string
}

func NewService(repo taxirepo.Repository, hasher credential.Hasher, log *zap.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		taxis:   repo,
		hasher:  hasher,
		log:     log.With(zap.String("component", "taxis")),
		metrics: m,
		newTaxiID: func() domain.TaxiID {
			return domain.TaxiID(uuid.NewString())
		},
		newRegistrationID: func() domain.RegistrationID {
			return domain.RegistrationID(uuid.NewString())
		},
	}
}

// SetNewTaxiIDForTest overrides taxi ID generation for deterministic tests.
func (s *Service) SetNewTaxiIDForTest(fn func() domain.TaxiID) {
	if fn != nil {
		s.newTaxiID = fn
	}
}

// SetNewRegistrationIDForTest overrides registration ID generation for deterministic tests.
func (s *Service) SetNewRegistrationIDForTest(fn func() domain.RegistrationID) {
	if fn != nil {
		s.newRegistrationID = fn
	}
}

// StartRegistration reserves nothing; it only checks the number is free and hands back
// the pending state the client must present to FinishRegistration.
func (s *Service) StartRegistration(ctx context.Context, rawNumber string) (domain.PendingRegistration, error) {
	number := domain.NormalizeTaxiNumber(rawNumber)
	if !domain.ValidTaxiNumber(number) {
		return domain.PendingRegistration{}, apperr.Validation("invalid taxi number", map[string]any{"number": "letters, digits and '-' only, at most 32 characters"})
	}
	exists, err := s.taxis.Exists(ctx, number)
	if err != nil {
		return domain.PendingRegistration{}, s.internal("StartRegistration", err)
	}
	if exists {
		return domain.PendingRegistration{}, apperr.InvalidRequest(apperr.CodeTaxiExists, "Taxi already registered")
	}
	return domain.PendingRegistration{ID: s.newRegistrationID(), Number: number}, nil
}

// FinishRegistration persists the taxi and its owner, and returns the session of the new owner.
// pending is the client-held state decoded by the caller, or nil when absent or invalid.
func (s *Service) FinishRegistration(ctx context.Context, id domain.RegistrationID, pending *domain.PendingRegistration, in RegistrationDetails) (Registered, error) {
	if pending == nil || pending.ID != id {
		return Registered{}, apperr.NotFound(apperr.CodeUnknownRegistration, "Unknown registration id")
	}

	fullName := domain.NormalizeHumanName(in.FullName)
	brand := domain.NormalizeHumanName(in.Brand)
	details := map[string]any{}
	if fullName == "" {
		details["owner"] = "must be non-empty"
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLen {
		details["password"] = "must be at least 8 characters"
	}
	if brand == "" {
		details["car_brand"] = "must be non-empty"
	}
	if in.SeatCount < 1 {
		details["num_of_seats"] = "must be at least 1"
	}
	if len(details) > 0 {
		return Registered{}, apperr.Validation("invalid registration details", details)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Registered{}, s.internal("FinishRegistration.hash", err)
	}

	taxi := domain.Taxi{
		ID:        s.newTaxiID(),
		Number:    pending.Number,
		Brand:     brand,
		SeatCount: in.SeatCount,
	}
	if err := s.taxis.CreateWithOwner(ctx, taxi, domain.Owner{FullName: fullName, PasswordDigest: digest}); err != nil {
		if errors.Is(err, taxirepo.ErrAlreadyExists) {
			return Registered{}, apperr.InvalidRequest(apperr.CodeTaxiExists, "Taxi already registered")
		}
		return Registered{}, s.internal("FinishRegistration", err)
	}

	s.metrics.IncRegistrationCompleted()
	s.log.Info("taxi registered", zap.String("number", string(taxi.Number)))
	return Registered{
		Taxi:    taxi,
		Session: domain.AuthSession{TaxiNumber: taxi.Number, FullName: fullName},
	}, nil
}

// Login checks the owner's password. Unknown numbers and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, rawNumber, password string) (domain.AuthSession, error) {
	number := domain.NormalizeTaxiNumber(rawNumber)
	invalid := apperr.InvalidRequest(apperr.CodeInvalidCredentials, invalidCredentialsMessage)

	owner, err := s.taxis.GetOwner(ctx, number)
	if err != nil {
		if errors.Is(err, taxirepo.ErrNotFound) {
			s.burnCompare(password)
			s.metrics.IncLogin("failure")
			return domain.AuthSession{}, invalid
		}
		return domain.AuthSession{}, s.internal("Login", err)
	}

	ok, err := s.hasher.Verify(password, owner.PasswordDigest)
	if err != nil {
		return domain.AuthSession{}, s.internal("Login.verify", err)
	}
	if !ok {
		s.metrics.IncLogin("failure")
		return domain.AuthSession{}, invalid
	}

	s.metrics.IncLogin("success")
	return domain.AuthSession{TaxiNumber: number, FullName: owner.FullName}, nil
}

// GetOwner returns the owner's full name.
func (s *Service) GetOwner(ctx context.Context, auth domain.AuthSession, number domain.TaxiNumber) (string, error) {
	if !auth.Covers(number) {
		return "", apperr.Unauthorized()
	}
	owner, err := s.taxis.GetOwner(ctx, auth.TaxiNumber)
	if err != nil {
		if errors.Is(err, taxirepo.ErrNotFound) {
			return "", apperr.NotFound(apperr.CodeUnknownTaxi, "Unknown taxi")
		}
		return "", s.internal("GetOwner", err)
	}
	return owner.FullName, nil
}

func (s *Service) GetTaxi(ctx context.Context, number domain.TaxiNumber) (domain.Taxi, error) {
	t, err := s.taxis.GetByNumber(ctx, domain.NormalizeTaxiNumber(string(number)))
	if err != nil {
		if errors.Is(err, taxirepo.ErrNotFound) {
			return domain.Taxi{}, apperr.NotFound(apperr.CodeUnknownTaxi, "Unknown taxi")
		}
		return domain.Taxi{}, s.internal("GetTaxi", err)
	}
	return t, nil
}

// burnCompare spends one digest comparison so unknown numbers take as long as wrong passwords.
func (s *Service) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		d, err := s.hasher.Hash("txpress-dummy-password")
		if err != nil {
			s.log.Warn("dummy digest unavailable", zap.Error(err))
			return
		}
		s.dummyDigest = d
	})
	if s.dummyDigest != "" {
		_, _ = s.hasher.Verify(password, s.dummyDigest)
	}
}

func (s *Service) internal(op string, err error) error {
	s.log.Error("store failure", zap.String("op", op), zap.Error(err))
	return apperr.Internal(err)
}
