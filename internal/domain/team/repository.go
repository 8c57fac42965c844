package team

import "context"

type Repository interface {
	UpsertMany(ctx context.Context, teams []Team) error
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	List(ctx context.Context) ([]Team, error)
}
