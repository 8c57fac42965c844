package user

import "context"

type Repository interface {
	UpsertMany(ctx context.Context, users []User) error
	ListByIDs(ctx context.Context, userIDs []int64) ([]User, error)
}
