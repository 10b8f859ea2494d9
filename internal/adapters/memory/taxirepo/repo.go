package taxirepo

import (
	"context"
	"sync"

	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/ports/out/taxirepo"
)

// Repo is an in-memory implementation of taxirepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	taxis  map[domain.TaxiNumber]domain.Taxi
	owners map[domain.TaxiNumber]domain.Owner
}

func NewRepo() *Repo {
	return &Repo{
		taxis:  make(map[domain.TaxiNumber]domain.Taxi),
		owners: make(map[domain.TaxiNumber]domain.Owner),
	}
}

func (r *Repo) Exists(ctx context.Context, number domain.TaxiNumber) (bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.taxis[key(number)]
	return ok, nil
}

func (r *Repo) CreateWithOwner(ctx context.Context, taxi domain.Taxi, owner domain.Owner) error {
	_ = ctx
	k := key(taxi.Number)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.taxis[k]; ok {
		return taxirepo.ErrAlreadyExists
	}
	taxi.Number = k
	r.taxis[k] = taxi
	r.owners[k] = owner
	return nil
}

func (r *Repo) GetByNumber(ctx context.Context, number domain.TaxiNumber) (domain.Taxi, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.taxis[key(number)]
	if !ok {
		return domain.Taxi{}, taxirepo.ErrNotFound
	}
	return t, nil
}

func (r *Repo) GetOwner(ctx context.Context, number domain.TaxiNumber) (domain.Owner, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.owners[key(number)]
	if !ok {
		return domain.Owner{}, taxirepo.ErrNotFound
	}
	return o, nil
}

func key(n domain.TaxiNumber) domain.TaxiNumber { return domain.NormalizeTaxiNumber(string(n)) }
