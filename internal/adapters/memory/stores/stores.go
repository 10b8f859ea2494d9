// Package stores wires the memory repositories onto shared state.
package stores

import (
	"github.com/txpress/taxi-api/internal/adapters/memory/bookingrepo"
	"github.com/txpress/taxi-api/internal/adapters/memory/journeyrepo"
	"github.com/txpress/taxi-api/internal/adapters/memory/searchrepo"
	"github.com/txpress/taxi-api/internal/adapters/memory/standrepo"
	"github.com/txpress/taxi-api/internal/adapters/memory/taxirepo"
)

type Set struct {
	Stands   *standrepo.Repo
	Taxis    *taxirepo.Repo
	Journeys *journeyrepo.Repo
	Bookings *bookingrepo.Repo
	Search   *searchrepo.Repo
}

func New() Set {
	taxis := taxirepo.NewRepo()
	journeys := journeyrepo.NewRepo()
	return Set{
		Stands:   standrepo.NewRepo(),
		Taxis:    taxis,
		Journeys: journeys,
		Bookings: bookingrepo.NewRepo(journeys),
		Search:   searchrepo.NewRepo(journeys, taxis),
	}
}
