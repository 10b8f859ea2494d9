package bookingrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/txpress/taxi-api/internal/adapters/postgres"
	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/ports/out/bookingrepo"
)

// Repo is a Postgres implementation of bookingrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts the booking and adds its seats to the journey in one transaction.
func (r *Repo) Create(ctx context.Context, b domain.Booking) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(b.ID))
	if err != nil {
		return fmt.Errorf("invalid booking id: %w", err)
	}
	tripID, err := uuid.Parse(string(b.JourneyID))
	if err != nil {
		return bookingrepo.ErrUnknownJourney
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO bookings (id, trip_id, reserved_seats) VALUES ($1, $2, $3)
		`, id, tripID, b.ReservedSeats)
		if err != nil {
			if postgres.IsViolation(err, postgres.ForeignKeyViolationCode, postgres.BookingsTripForeignKey) {
				return bookingrepo.ErrUnknownJourney
			}
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE trips SET reserved_seats = reserved_seats + $2 WHERE id = $1`, tripID, b.ReservedSeats)
		return err
	})
}

func (r *Repo) ExistsForJourney(ctx context.Context, journeyID domain.JourneyID) (bool, error) {
	if r.pool == nil {
		return false, errors.New("nil postgres pool")
	}
	tripID, err := uuid.Parse(string(journeyID))
	if err != nil {
		return false, nil
	}
	var ok bool
	err = r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE trip_id = $1)`, tripID).Scan(&ok)
	return ok, err
}
