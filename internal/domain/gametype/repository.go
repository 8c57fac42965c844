package gametype

import "context"

type Repository interface {
	UpsertTypes(ctx context.Context, types []GameType) error
	ListTypes(ctx context.Context) ([]GameType, error)
	// EnsureScalings inserts missing (channel, game type) scaling rows with
	// the default factor. Existing rows keep their factor.
	EnsureScalings(ctx context.Context, channelID int64, gameTypeIDs []string) error
	ListScalings(ctx context.Context, channelID int64) ([]Scaling, error)
}
