package standrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/ports/out/standrepo"
)

// Repo is an in-memory implementation of standrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.StandID]domain.Stand
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.StandID]domain.Stand)}
}

func (r *Repo) CreateMany(ctx context.Context, stands []domain.Stand) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range stands {
		r.byID[s.ID] = s
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.StandID) (domain.Stand, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return domain.Stand{}, standrepo.ErrNotFound
	}
	return s, nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Stand, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]domain.Stand, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
