package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ottersden/otterball/internal/domain/game"
)

type GameRepository struct {
	mu    sync.RWMutex
	items map[string]game.Game
}

func NewGameRepository(games ...game.Game) *GameRepository {
	r := &GameRepository{items: make(map[string]game.Game, len(games))}
	for _, g := range games {
		r.items[g.ID] = g
	}
	return r
}

func (r *GameRepository) UpsertMany(_ context.Context, games []game.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, g := range games {
		r.items[g.ID] = g
	}
	return nil
}

func (r *GameRepository) GetByID(_ context.Context, gameID string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.items[gameID]
	return g, ok, nil
}

func (r *GameRepository) ListByIDs(_ context.Context, gameIDs []string) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0, len(gameIDs))
	for _, id := range gameIDs {
		if g, ok := r.items[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *GameRepository) ListByKickoffWindow(_ context.Context, from, to time.Time) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0)
	for _, g := range r.items {
		if !g.Kickoff.Before(from) && g.Kickoff.Before(to) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kickoff.Equal(out[j].Kickoff) {
			return out[i].ID < out[j].ID
		}
		return out[i].Kickoff.Before(out[j].Kickoff)
	})
	return out, nil
}
