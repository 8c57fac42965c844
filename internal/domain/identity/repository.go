package identity

import "context"

type Repository interface {
	UpsertGameIdentifiers(ctx context.Context, identifiers []GameIdentifier) error
	UpsertTeamIdentifiers(ctx context.Context, identifiers []TeamIdentifier) error
	ListGameIdentifiers(ctx context.Context, source Source) ([]GameIdentifier, error)
	ListTeamIdentifiers(ctx context.Context, source Source) ([]TeamIdentifier, error)
}
