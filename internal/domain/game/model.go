package game

import (
	"fmt"
	"strings"
	"time"
)

// Outcome is the settled result of a game from the home team's perspective.
type Outcome int

const (
	OutcomeNotFinished Outcome = -1
	OutcomeHome        Outcome = 0
	OutcomeAway        Outcome = 1
	OutcomeTie         Outcome = 2
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotFinished:
		return "not_finished"
	case OutcomeHome:
		return "home"
	case OutcomeAway:
		return "away"
	case OutcomeTie:
		return "tie"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// IsChoice reports whether the outcome is something a wager can pick.
func (o Outcome) IsChoice() bool {
	return o == OutcomeHome || o == OutcomeAway || o == OutcomeTie
}

// OutcomeFromResult derives the outcome from the stored point differential
// (home score minus away score). A nil result means the game has not finished.
func OutcomeFromResult(result *int) Outcome {
	switch {
	case result == nil:
		return OutcomeNotFinished
	case *result == 0:
		return OutcomeTie
	case *result < 0:
		return OutcomeAway
	default:
		return OutcomeHome
	}
}

// Game is one scheduled NFL matchup. The ID is the primary source's game key;
// secondary sources attach through identity mappings.
type Game struct {
	ID         string
	HomeTeamID string
	AwayTeamID string
	HomeScore  *int
	AwayScore  *int
	Result     *int
	GameTypeID string
	Kickoff    time.Time
}

func (g Game) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return fmt.Errorf("game id is required")
	}
	if strings.TrimSpace(g.HomeTeamID) == "" || strings.TrimSpace(g.AwayTeamID) == "" {
		return fmt.Errorf("game teams are required")
	}
	if g.HomeTeamID == g.AwayTeamID {
		return fmt.Errorf("game home and away teams must differ")
	}
	if strings.TrimSpace(g.GameTypeID) == "" {
		return fmt.Errorf("game type is required")
	}
	if g.Kickoff.IsZero() {
		return fmt.Errorf("game kickoff is required")
	}
	return nil
}

func (g Game) Outcome() Outcome {
	return OutcomeFromResult(g.Result)
}

func (g Game) Finished() bool {
	return g.Result != nil
}

// WinnerTeamID returns the winning team id, or false for ties and
// unfinished games.
func (g Game) WinnerTeamID() (string, bool) {
	switch g.Outcome() {
	case OutcomeHome:
		return g.HomeTeamID, true
	case OutcomeAway:
		return g.AwayTeamID, true
	}
	return "", false
}

func (g Game) LoserTeamID() (string, bool) {
	switch g.Outcome() {
	case OutcomeHome:
		return g.AwayTeamID, true
	case OutcomeAway:
		return g.HomeTeamID, true
	}
	return "", false
}

// HasTeams reports whether the game is between the two given teams,
// in either home/away order.
func (g Game) HasTeams(teamA, teamB string) bool {
	return (g.HomeTeamID == teamA && g.AwayTeamID == teamB) ||
		(g.HomeTeamID == teamB && g.AwayTeamID == teamA)
}
