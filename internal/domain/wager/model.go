package wager

import (
	"fmt"

	"github.com/ottersden/otterball/internal/domain/game"
)

// Wager is one user's pick on one poll. (user, game, channel) is unique.
type Wager struct {
	UserID    int64
	GameID    string
	ChannelID int64
	Choice    game.Outcome
}

func (w Wager) Validate() error {
	if w.UserID == 0 {
		return fmt.Errorf("wager user id is required")
	}
	if w.GameID == "" {
		return fmt.Errorf("wager game id is required")
	}
	if w.ChannelID == 0 {
		return fmt.Errorf("wager channel id is required")
	}
	if !w.Choice.IsChoice() {
		return fmt.Errorf("wager choice %s is not a valid pick", w.Choice)
	}
	return nil
}

// Key identifies a wager within its poll.
type Key struct {
	UserID    int64
	GameID    string
	ChannelID int64
}

func (w Wager) Key() Key {
	return Key{UserID: w.UserID, GameID: w.GameID, ChannelID: w.ChannelID}
}
