package memory

import (
	"context"
	"sync"

	"github.com/ottersden/otterball/internal/domain/identity"
)

type identityKey struct {
	source     identity.Source
	externalID string
}

type IdentityRepository struct {
	mu    sync.RWMutex
	games map[identityKey]identity.GameIdentifier
	teams map[identityKey]identity.TeamIdentifier
}

func NewIdentityRepository() *IdentityRepository {
	return &IdentityRepository{
		games: make(map[identityKey]identity.GameIdentifier),
		teams: make(map[identityKey]identity.TeamIdentifier),
	}
}

func (r *IdentityRepository) UpsertGameIdentifiers(_ context.Context, identifiers []identity.GameIdentifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range identifiers {
		r.games[identityKey{source: id.Source, externalID: id.ExternalID}] = id
	}
	return nil
}

func (r *IdentityRepository) UpsertTeamIdentifiers(_ context.Context, identifiers []identity.TeamIdentifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range identifiers {
		r.teams[identityKey{source: id.Source, externalID: id.ExternalID}] = id
	}
	return nil
}

func (r *IdentityRepository) ListGameIdentifiers(_ context.Context, source identity.Source) ([]identity.GameIdentifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]identity.GameIdentifier, 0)
	for key, id := range r.games {
		if key.source == source {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *IdentityRepository) ListTeamIdentifiers(_ context.Context, source identity.Source) ([]identity.TeamIdentifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]identity.TeamIdentifier, 0)
	for key, id := range r.teams {
		if key.source == source {
			out = append(out, id)
		}
	}
	return out, nil
}
