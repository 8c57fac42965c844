package postgres

import (
	"database/sql"
	"time"

	"github.com/ottersden/otterball/internal/domain/game"
)

type gameTableModel struct {
	ID         string        `db:"id"`
	HomeTeamID string        `db:"home_team_id"`
	AwayTeamID string        `db:"away_team_id"`
	HomeScore  sql.NullInt64 `db:"home_score"`
	AwayScore  sql.NullInt64 `db:"away_score"`
	Result     sql.NullInt64 `db:"result"`
	GameTypeID string        `db:"game_type_id"`
	Kickoff    time.Time     `db:"kickoff"`
}

var gameColumns = []string{
	"id", "home_team_id", "away_team_id",
	"home_score", "away_score", "result",
	"game_type_id", "kickoff",
}

func gameModelFromDomain(g game.Game) gameTableModel {
	return gameTableModel{
		ID:         g.ID,
		HomeTeamID: g.HomeTeamID,
		AwayTeamID: g.AwayTeamID,
		HomeScore:  nullInt(g.HomeScore),
		AwayScore:  nullInt(g.AwayScore),
		Result:     nullInt(g.Result),
		GameTypeID: g.GameTypeID,
		Kickoff:    g.Kickoff.UTC(),
	}
}

func (m gameTableModel) toDomain() game.Game {
	return game.Game{
		ID:         m.ID,
		HomeTeamID: m.HomeTeamID,
		AwayTeamID: m.AwayTeamID,
		HomeScore:  nullIntPtr(m.HomeScore),
		AwayScore:  nullIntPtr(m.AwayScore),
		Result:     nullIntPtr(m.Result),
		GameTypeID: m.GameTypeID,
		Kickoff:    m.Kickoff.UTC(),
	}
}
