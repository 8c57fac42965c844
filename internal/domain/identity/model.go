package identity

import (
	"fmt"
	"strings"
)

// Source names a schedule data source. The set is closed: adding a source is
// a code change, not configuration.
type Source string

const (
	SourceNFLVerse Source = "nflverse"
	SourceESPN     Source = "espn"
)

func (s Source) Valid() bool {
	return s == SourceNFLVerse || s == SourceESPN
}

// GameIdentifier maps a source-local game id onto a stored game.
// (source, external_id) is unique across the map.
type GameIdentifier struct {
	Source     Source
	ExternalID string
	GameID     string
}

func (g GameIdentifier) Validate() error {
	if !g.Source.Valid() {
		return fmt.Errorf("unknown source %q", g.Source)
	}
	if strings.TrimSpace(g.ExternalID) == "" {
		return fmt.Errorf("external id is required")
	}
	if strings.TrimSpace(g.GameID) == "" {
		return fmt.Errorf("game id is required")
	}
	return nil
}

// TeamIdentifier maps a source-local team id onto a stored team.
type TeamIdentifier struct {
	Source     Source
	ExternalID string
	TeamID     string
}

func (t TeamIdentifier) Validate() error {
	if !t.Source.Valid() {
		return fmt.Errorf("unknown source %q", t.Source)
	}
	if strings.TrimSpace(t.ExternalID) == "" {
		return fmt.Errorf("external id is required")
	}
	if strings.TrimSpace(t.TeamID) == "" {
		return fmt.Errorf("team id is required")
	}
	return nil
}
