package memory

import (
	"context"
	"sync"

	"github.com/ottersden/otterball/internal/domain/poll"
)

type pollKey struct {
	channelID int64
	gameID    string
}

type PollRepository struct {
	mu     sync.RWMutex
	items  map[int64]poll.Poll
	byPair map[pollKey]int64
	order  []int64
	nextID int64
}

func NewPollRepository() *PollRepository {
	return &PollRepository{
		items:  make(map[int64]poll.Poll),
		byPair: make(map[pollKey]int64),
		nextID: 1,
	}
}

func (r *PollRepository) Create(_ context.Context, p poll.Poll) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pollKey{channelID: p.ChannelID, gameID: p.GameID}
	if _, ok := r.byPair[key]; ok {
		return false, nil
	}

	p.ID = r.nextID
	r.nextID++
	r.items[p.ID] = p
	r.byPair[key] = p.ID
	r.order = append(r.order, p.ID)
	return true, nil
}

func (r *PollRepository) ListCreated(_ context.Context) ([]poll.Poll, error) {
	return r.listByState(poll.StateCreated), nil
}

func (r *PollRepository) ListOpen(_ context.Context) ([]poll.Poll, error) {
	return r.listByState(poll.StateOpen), nil
}

func (r *PollRepository) ListAwaitingResults(_ context.Context) ([]poll.Poll, error) {
	return r.listByState(poll.StateClosed), nil
}

func (r *PollRepository) listByState(state poll.State) []poll.Poll {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]poll.Poll, 0)
	for _, id := range r.order {
		if p := r.items[id]; p.State() == state {
			out = append(out, p)
		}
	}
	return out
}

func (r *PollRepository) SetMessageID(_ context.Context, pollID, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.items[pollID]; ok {
		p.MessageID = &messageID
		r.items[pollID] = p
	}
	return nil
}

func (r *PollRepository) MarkClosed(_ context.Context, pollID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.items[pollID]; ok {
		p.Closed = true
		r.items[pollID] = p
	}
	return nil
}

func (r *PollRepository) MarkResultPosted(_ context.Context, pollID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.items[pollID]; ok {
		p.ResultPosted = true
		r.items[pollID] = p
	}
	return nil
}

// GetByPair looks a poll up by its (channel, game) pair. Test helper.
func (r *PollRepository) GetByPair(channelID int64, gameID string) (poll.Poll, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPair[pollKey{channelID: channelID, gameID: gameID}]
	if !ok {
		return poll.Poll{}, false
	}
	return r.items[id], true
}
