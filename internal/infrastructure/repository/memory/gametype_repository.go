package memory

import (
	"context"
	"sync"

	"github.com/ottersden/otterball/internal/domain/gametype"
)

type scalingKey struct {
	channelID  int64
	gameTypeID string
}

type GameTypeRepository struct {
	mu       sync.RWMutex
	types    map[string]gametype.GameType
	order    []string
	scalings map[scalingKey]gametype.Scaling
}

func NewGameTypeRepository(types ...gametype.GameType) *GameTypeRepository {
	r := &GameTypeRepository{
		types:    make(map[string]gametype.GameType, len(types)),
		scalings: make(map[scalingKey]gametype.Scaling),
	}
	for _, gt := range types {
		if _, ok := r.types[gt.ID]; !ok {
			r.order = append(r.order, gt.ID)
		}
		r.types[gt.ID] = gt
	}
	return r
}

func (r *GameTypeRepository) UpsertTypes(_ context.Context, types []gametype.GameType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, gt := range types {
		if _, ok := r.types[gt.ID]; !ok {
			r.order = append(r.order, gt.ID)
		}
		r.types[gt.ID] = gt
	}
	return nil
}

func (r *GameTypeRepository) ListTypes(_ context.Context) ([]gametype.GameType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]gametype.GameType, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.types[id])
	}
	return out, nil
}

func (r *GameTypeRepository) EnsureScalings(_ context.Context, channelID int64, gameTypeIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range gameTypeIDs {
		key := scalingKey{channelID: channelID, gameTypeID: id}
		if _, ok := r.scalings[key]; !ok {
			r.scalings[key] = gametype.Scaling{
				ChannelID:  channelID,
				GameTypeID: id,
				Factor:     gametype.DefaultFactor,
			}
		}
	}
	return nil
}

// SetScaling overrides one factor. Test helper.
func (r *GameTypeRepository) SetScaling(s gametype.Scaling) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.scalings[scalingKey{channelID: s.ChannelID, gameTypeID: s.GameTypeID}] = s
}

func (r *GameTypeRepository) ListScalings(_ context.Context, channelID int64) ([]gametype.Scaling, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]gametype.Scaling, 0)
	for _, id := range r.order {
		if s, ok := r.scalings[scalingKey{channelID: channelID, gameTypeID: id}]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}
