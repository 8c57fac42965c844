package memory

import (
	"context"
	"sync"

	"github.com/ottersden/otterball/internal/domain/team"
)

type TeamRepository struct {
	mu    sync.RWMutex
	items map[string]team.Team
	order []string
}

func NewTeamRepository(teams ...team.Team) *TeamRepository {
	r := &TeamRepository{items: make(map[string]team.Team, len(teams))}
	for _, t := range teams {
		if _, ok := r.items[t.ID]; !ok {
			r.order = append(r.order, t.ID)
		}
		r.items[t.ID] = t
	}
	return r
}

func (r *TeamRepository) UpsertMany(_ context.Context, teams []team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range teams {
		if _, ok := r.items[t.ID]; !ok {
			r.order = append(r.order, t.ID)
		}
		r.items[t.ID] = t
	}
	return nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[teamID]
	return t, ok, nil
}

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}
