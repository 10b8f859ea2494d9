package taxirepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/txpress/taxi-api/internal/adapters/postgres"
	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/ports/out/taxirepo"
)

// Repo is a Postgres implementation of taxirepo.Repository.
// Numbers are stored lowercase; a CHECK constraint enforces it.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Exists(ctx context.Context, number domain.TaxiNumber) (bool, error) {
	if r.pool == nil {
		return false, errors.New("nil postgres pool")
	}
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM taxis WHERE number = $1)`, key(number)).Scan(&ok)
	return ok, err
}

func (r *Repo) CreateWithOwner(ctx context.Context, taxi domain.Taxi, owner domain.Owner) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(taxi.ID))
	if err != nil {
		return fmt.Errorf("invalid taxi id: %w", err)
	}
	number := key(taxi.Number)

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO taxis (id, number, brand, number_of_seats)
			VALUES ($1, $2, $3, $4)
		`, id, number, taxi.Brand, taxi.SeatCount)
		if err != nil {
			if postgres.IsViolation(err, postgres.UniqueViolationCode, postgres.TaxisNumberUniqueConstraint) {
				return taxirepo.ErrAlreadyExists
			}
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO taxi_owners (taxi_number, full_name, password_digest)
			VALUES ($1, $2, $3)
		`, number, owner.FullName, owner.PasswordDigest)
		return err
	})
}

func (r *Repo) GetByNumber(ctx context.Context, number domain.TaxiNumber) (domain.Taxi, error) {
	if r.pool == nil {
		return domain.Taxi{}, errors.New("nil postgres pool")
	}
	var (
		t  domain.Taxi
		id uuid.UUID
		n  string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, number, brand, number_of_seats FROM taxis WHERE number = $1
	`, key(number)).Scan(&id, &n, &t.Brand, &t.SeatCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Taxi{}, taxirepo.ErrNotFound
		}
		return domain.Taxi{}, err
	}
	t.ID = domain.TaxiID(id.String())
	t.Number = domain.TaxiNumber(n)
	return t, nil
}

func (r *Repo) GetOwner(ctx context.Context, number domain.TaxiNumber) (domain.Owner, error) {
	if r.pool == nil {
		return domain.Owner{}, errors.New("nil postgres pool")
	}
	var o domain.Owner
	err := r.pool.QueryRow(ctx, `
		SELECT full_name, password_digest FROM taxi_owners WHERE taxi_number = $1
	`, key(number)).Scan(&o.FullName, &o.PasswordDigest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Owner{}, taxirepo.ErrNotFound
		}
		return domain.Owner{}, err
	}
	return o, nil
}

func key(n domain.TaxiNumber) string { return string(domain.NormalizeTaxiNumber(string(n))) }
