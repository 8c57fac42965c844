package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ottersden/otterball/internal/domain/wager"
)

type WagerRepository struct {
	mu    sync.RWMutex
	items map[wager.Key]wager.Wager
}

func NewWagerRepository(wagers ...wager.Wager) *WagerRepository {
	r := &WagerRepository{items: make(map[wager.Key]wager.Wager, len(wagers))}
	for _, w := range wagers {
		r.items[w.Key()] = w
	}
	return r
}

func (r *WagerRepository) Upsert(_ context.Context, w wager.Wager) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[w.Key()] = w
	return nil
}

func (r *WagerRepository) Delete(_ context.Context, key wager.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, key)
	return nil
}

func (r *WagerRepository) ListByPoll(_ context.Context, channelID int64, gameID string) ([]wager.Wager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]wager.Wager, 0)
	for key, w := range r.items {
		if key.ChannelID == channelID && key.GameID == gameID {
			out = append(out, w)
		}
	}
	sortWagers(out)
	return out, nil
}

func (r *WagerRepository) ListByChannel(_ context.Context, channelID int64) ([]wager.Wager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]wager.Wager, 0)
	for key, w := range r.items {
		if key.ChannelID == channelID {
			out = append(out, w)
		}
	}
	sortWagers(out)
	return out, nil
}

func sortWagers(out []wager.Wager) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].GameID != out[j].GameID {
			return out[i].GameID < out[j].GameID
		}
		return out[i].UserID < out[j].UserID
	})
}
