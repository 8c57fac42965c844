package poll

import "context"

type Repository interface {
	// Create inserts the poll row if the (channel, game) pair has none yet.
	// It reports false, nil when the pair already exists.
	Create(ctx context.Context, p Poll) (bool, error)
	// ListCreated returns polls with no platform message yet.
	ListCreated(ctx context.Context) ([]Poll, error)
	// ListOpen returns published polls that are not closed yet.
	ListOpen(ctx context.Context) ([]Poll, error)
	// ListAwaitingResults returns closed polls whose result is not posted.
	ListAwaitingResults(ctx context.Context) ([]Poll, error)
	SetMessageID(ctx context.Context, pollID, messageID int64) error
	MarkClosed(ctx context.Context, pollID int64) error
	MarkResultPosted(ctx context.Context, pollID int64) error
}
