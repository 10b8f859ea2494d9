package searchrepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/ports/out/searchrepo"
)

// Repo is a Postgres implementation of searchrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const selectCandidate = `
	SELECT t.id, x.number, x.brand, x.number_of_seats, t.departure_schedule, t.reserved_seats,
	       t.closed, t.departure_id, t.arrival_id
	FROM trips t
	JOIN taxis x ON x.number = t.owner
`

func (r *Repo) FindOpenByRoute(ctx context.Context, origin, destination domain.StandID) ([]domain.CandidateTaxi, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	from, err1 := uuid.Parse(string(origin))
	to, err2 := uuid.Parse(string(destination))
	if err1 != nil || err2 != nil {
		return []domain.CandidateTaxi{}, nil
	}
	rows, err := r.pool.Query(ctx, selectCandidate+`
		WHERE t.departure_id = $1 AND t.arrival_id = $2 AND NOT t.closed
		ORDER BY t.departure_schedule, t.id
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CandidateTaxi, 0)
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) GetByJourney(ctx context.Context, id domain.JourneyID) (domain.CandidateTaxi, error) {
	if r.pool == nil {
		return domain.CandidateTaxi{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.CandidateTaxi{}, searchrepo.ErrNotFound
	}
	c, err := scan(r.pool.QueryRow(ctx, selectCandidate+` WHERE t.id = $1`, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CandidateTaxi{}, searchrepo.ErrNotFound
		}
		return domain.CandidateTaxi{}, err
	}
	return c, nil
}

func scan(row pgx.Row) (domain.CandidateTaxi, error) {
	var (
		id, from, to uuid.UUID
		number       string
		at           time.Time
		c            domain.CandidateTaxi
	)
	if err := row.Scan(&id, &number, &c.Brand, &c.SeatCount, &at, &c.ReservedSeats, &c.Closed, &from, &to); err != nil {
		return domain.CandidateTaxi{}, err
	}
	c.JourneyID = domain.JourneyID(id.String())
	c.Number = domain.TaxiNumber(number)
	c.DepartureSchedule = at.UTC()
	c.Origin = domain.StandID(from.String())
	c.Destination = domain.StandID(to.String())
	return c, nil
}
