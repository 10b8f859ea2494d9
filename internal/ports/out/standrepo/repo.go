package standrepo

import (
	"context"
	"errors"

	"github.com/txpress/taxi-api/internal/domain"
)

var ErrNotFound = errors.New("stand not found")

// Repository provides access to persisted taxi ranks.
//
// List returns stands ordered by name, then ID.
type Repository interface {
	// CreateMany inserts all stands or none.
	CreateMany(ctx context.Context, stands []domain.Stand) error

	GetByID(ctx context.Context, id domain.StandID) (domain.Stand, error)
	List(ctx context.Context) ([]domain.Stand, error)
}
