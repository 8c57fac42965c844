package game

import (
	"context"
	"time"
)

type Repository interface {
	UpsertMany(ctx context.Context, games []Game) error
	GetByID(ctx context.Context, gameID string) (Game, bool, error)
	ListByIDs(ctx context.Context, gameIDs []string) ([]Game, error)
	// ListByKickoffWindow returns games with kickoff in [from, to), ordered
	// by kickoff.
	ListByKickoffWindow(ctx context.Context, from, to time.Time) ([]Game, error)
}
