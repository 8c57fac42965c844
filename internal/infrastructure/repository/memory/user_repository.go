package memory

import (
	"context"
	"sync"

	"github.com/ottersden/otterball/internal/domain/user"
)

type UserRepository struct {
	mu    sync.RWMutex
	items map[int64]user.User
}

func NewUserRepository(users ...user.User) *UserRepository {
	r := &UserRepository{items: make(map[int64]user.User, len(users))}
	for _, u := range users {
		r.items[u.ID] = u
	}
	return r
}

func (r *UserRepository) UpsertMany(_ context.Context, users []user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range users {
		r.items[u.ID] = u
	}
	return nil
}

func (r *UserRepository) ListByIDs(_ context.Context, userIDs []int64) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(userIDs))
	for _, id := range userIDs {
		if u, ok := r.items[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}
