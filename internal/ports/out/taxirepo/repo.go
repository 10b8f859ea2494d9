package taxirepo

import (
	"context"
	"errors"

	"github.com/txpress/taxi-api/internal/domain"
)

var (
	ErrNotFound      = errors.New("taxi not found")
	ErrAlreadyExists = errors.New("taxi already exists")
)

// Repository provides access to persisted taxis and their owners.
// Numbers passed in are normalized; implementations still compare case-insensitively.
type Repository interface {
	Exists(ctx context.Context, number domain.TaxiNumber) (bool, error)

	// CreateWithOwner persists the taxi and its owner atomically.
	// ErrAlreadyExists is returned if the number is taken; nothing is written in that case.
	CreateWithOwner(ctx context.Context, taxi domain.Taxi, owner domain.Owner) error

	GetByNumber(ctx context.Context, number domain.TaxiNumber) (domain.Taxi, error)
	GetOwner(ctx context.Context, number domain.TaxiNumber) (domain.Owner, error)
}
