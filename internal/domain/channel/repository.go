package channel

import "context"

type Repository interface {
	Upsert(ctx context.Context, ch Channel) error
	GetByID(ctx context.Context, channelID int64) (Channel, bool, error)
	ListActive(ctx context.Context) ([]Channel, error)
	SetLeaderboardMessageID(ctx context.Context, channelID, messageID int64) error
}
