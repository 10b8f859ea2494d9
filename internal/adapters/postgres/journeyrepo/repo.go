package journeyrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/txpress/taxi-api/internal/adapters/postgres"
	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/ports/out/journeyrepo"
)

// Repo is a Postgres implementation of journeyrepo.Repository.
//
// The one-open-journey rule is the partial unique index trips_one_open_per_owner;
// booking protection is the bookings_trip_fk foreign key without cascade.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const selectJourney = `
	SELECT id, owner, departure_id, arrival_id, departure_schedule, reserved_seats, closed
	FROM trips
`

func (r *Repo) Create(ctx context.Context, j domain.Journey) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(j.ID))
	if err != nil {
		return fmt.Errorf("invalid journey id: %w", err)
	}
	from, err1 := uuid.Parse(string(j.Origin))
	to, err2 := uuid.Parse(string(j.Destination))
	if err1 != nil || err2 != nil {
		return journeyrepo.ErrInvalidReference
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO trips (id, owner, departure_id, arrival_id, departure_schedule, reserved_seats, closed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, string(j.OwnerNumber), from, to, j.DepartureSchedule.UTC(), j.ReservedSeats, j.Closed)
	if err != nil {
		switch {
		case postgres.IsViolation(err, postgres.UniqueViolationCode, postgres.TripsOneOpenPerOwnerIndex):
			return journeyrepo.ErrInProgress
		case postgres.IsViolation(err, postgres.UniqueViolationCode, ""):
			return journeyrepo.ErrAlreadyExists
		case postgres.IsViolation(err, postgres.ForeignKeyViolationCode, ""):
			return journeyrepo.ErrInvalidReference
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.JourneyID) (domain.Journey, error) {
	if r.pool == nil {
		return domain.Journey{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Journey{}, journeyrepo.ErrNotFound
	}
	return scanOne(r.pool.QueryRow(ctx, selectJourney+` WHERE id = $1`, uid))
}

func (r *Repo) GetInProgress(ctx context.Context, owner domain.TaxiNumber) (domain.Journey, error) {
	if r.pool == nil {
		return domain.Journey{}, errors.New("nil postgres pool")
	}
	return scanOne(r.pool.QueryRow(ctx, selectJourney+` WHERE owner = $1 AND NOT closed`, string(owner)))
}

func (r *Repo) HasInProgress(ctx context.Context, owner domain.TaxiNumber) (bool, error) {
	if r.pool == nil {
		return false, errors.New("nil postgres pool")
	}
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE owner = $1 AND NOT closed)`, string(owner)).Scan(&ok)
	return ok, err
}

func (r *Repo) ListByOwner(ctx context.Context, owner domain.TaxiNumber) ([]domain.Journey, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, selectJourney+` WHERE owner = $1 ORDER BY departure_schedule DESC, id`, string(owner))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Journey, 0)
	for rows.Next() {
		j, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *Repo) Close(ctx context.Context, id domain.JourneyID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return journeyrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `UPDATE trips SET closed = TRUE WHERE id = $1`, uid)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return journeyrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.JourneyID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return journeyrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM trips WHERE id = $1`, uid)
	if err != nil {
		if postgres.IsViolation(err, postgres.ForeignKeyViolationCode, postgres.BookingsTripForeignKey) {
			return journeyrepo.ErrHasBookings
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return journeyrepo.ErrNotFound
	}
	return nil
}

func scanOne(row pgx.Row) (domain.Journey, error) {
	j, err := scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Journey{}, journeyrepo.ErrNotFound
		}
		return domain.Journey{}, err
	}
	return j, nil
}

func scan(row pgx.Row) (domain.Journey, error) {
	var (
		id, from, to uuid.UUID
		owner        string
		at           time.Time
		j            domain.Journey
	)
	if err := row.Scan(&id, &owner, &from, &to, &at, &j.ReservedSeats, &j.Closed); err != nil {
		return domain.Journey{}, err
	}
	j.ID = domain.JourneyID(id.String())
	j.OwnerNumber = domain.TaxiNumber(owner)
	j.Origin = domain.StandID(from.String())
	j.Destination = domain.StandID(to.String())
	j.DepartureSchedule = at.UTC()
	return j, nil
}
