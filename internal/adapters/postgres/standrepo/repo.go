package standrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/ports/out/standrepo"
)

// Repo is a Postgres implementation of standrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// CreateMany inserts the batch with a single UNNEST statement, so it is all or nothing.
func (r *Repo) CreateMany(ctx context.Context, stands []domain.Stand) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	if len(stands) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(stands))
	names := make([]string, 0, len(stands))
	for _, s := range stands {
		id, err := uuid.Parse(string(s.ID))
		if err != nil {
			return fmt.Errorf("invalid stand id: %w", err)
		}
		ids = append(ids, id)
		names = append(names, s.Name)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO taxi_ranks (id, name)
		SELECT * FROM UNNEST($1::uuid[], $2::text[])
	`, ids, names)
	return err
}

func (r *Repo) GetByID(ctx context.Context, id domain.StandID) (domain.Stand, error) {
	if r.pool == nil {
		return domain.Stand{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Stand{}, standrepo.ErrNotFound
	}
	var (
		gotID uuid.UUID
		name  string
	)
	if err := r.pool.QueryRow(ctx, `SELECT id, name FROM taxi_ranks WHERE id = $1`, uid).Scan(&gotID, &name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Stand{}, standrepo.ErrNotFound
		}
		return domain.Stand{}, err
	}
	return domain.Stand{ID: domain.StandID(gotID.String()), Name: name}, nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Stand, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM taxi_ranks ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Stand, 0)
	for rows.Next() {
		var (
			id   uuid.UUID
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out = append(out, domain.Stand{ID: domain.StandID(id.String()), Name: name})
	}
	return out, rows.Err()
}
