package wager

import "context"

type Repository interface {
	Upsert(ctx context.Context, w Wager) error
	Delete(ctx context.Context, key Key) error
	ListByPoll(ctx context.Context, channelID int64, gameID string) ([]Wager, error)
	ListByChannel(ctx context.Context, channelID int64) ([]Wager, error)
}
