// Package stores wires the Postgres repositories onto one pool.
package stores

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/txpress/taxi-api/internal/adapters/postgres/bookingrepo"
	"github.com/txpress/taxi-api/internal/adapters/postgres/journeyrepo"
	"github.com/txpress/taxi-api/internal/adapters/postgres/searchrepo"
	"github.com/txpress/taxi-api/internal/adapters/postgres/standrepo"
	"github.com/txpress/taxi-api/internal/adapters/postgres/taxirepo"
)

type Set struct {
	Stands   *standrepo.Repo
	Taxis    *taxirepo.Repo
	Journeys *journeyrepo.Repo
	Bookings *bookingrepo.Repo
	Search   *searchrepo.Repo
}

func New(pool *pgxpool.Pool) Set {
	return Set{
		Stands:   standrepo.NewRepo(pool),
		Taxis:    taxirepo.NewRepo(pool),
		Journeys: journeyrepo.NewRepo(pool),
		Bookings: bookingrepo.NewRepo(pool),
		Search:   searchrepo.NewRepo(pool),
	}
}
