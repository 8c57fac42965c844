package memory

import (
	"context"
	"sync"

	"github.com/ottersden/otterball/internal/domain/channel"
)

type ChannelRepository struct {
	mu    sync.RWMutex
	items map[int64]channel.Channel
	order []int64
}

func NewChannelRepository(channels ...channel.Channel) *ChannelRepository {
	r := &ChannelRepository{items: make(map[int64]channel.Channel, len(channels))}
	for _, ch := range channels {
		if _, ok := r.items[ch.ID]; !ok {
			r.order = append(r.order, ch.ID)
		}
		r.items[ch.ID] = ch
	}
	return r
}

func (r *ChannelRepository) Upsert(_ context.Context, ch channel.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[ch.ID]; !ok {
		r.order = append(r.order, ch.ID)
	}
	r.items[ch.ID] = ch
	return nil
}

func (r *ChannelRepository) GetByID(_ context.Context, channelID int64) (channel.Channel, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.items[channelID]
	return ch, ok, nil
}

func (r *ChannelRepository) ListActive(_ context.Context) ([]channel.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]channel.Channel, 0, len(r.order))
	for _, id := range r.order {
		if ch := r.items[id]; ch.Active {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (r *ChannelRepository) SetLeaderboardMessageID(_ context.Context, channelID, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.items[channelID]
	if !ok {
		return nil
	}
	ch.LeaderboardMessageID = &messageID
	r.items[channelID] = ch
	return nil
}
