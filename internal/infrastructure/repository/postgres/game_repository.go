package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ottersden/otterball/internal/domain/game"
	qb "github.com/ottersden/otterball/internal/platform/querybuilder"
)

const gameUpsertSuffix = "ON CONFLICT (id) DO UPDATE SET " +
	"home_team_id = EXCLUDED.home_team_id, away_team_id = EXCLUDED.away_team_id, " +
	"home_score = EXCLUDED.home_score, away_score = EXCLUDED.away_score, " +
	"result = EXCLUDED.result, game_type_id = EXCLUDED.game_type_id, " +
	"kickoff = EXCLUDED.kickoff, updated_at = NOW()"

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) UpsertMany(ctx context.Context, games []game.Game) error {
	if len(games) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert games tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, g := range games {
		query, args, err := qb.InsertModel("games", gameModelFromDomain(g), gameUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert game query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert game %s: %w", g.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert games tx: %w", err)
	}
	return nil
}

func (r *GameRepository) GetByID(ctx context.Context, gameID string) (game.Game, bool, error) {
	query, args, err := qb.Select(gameColumns...).
		From("games").
		Where(qb.Eq("id", gameID)).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build select game query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("select game: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *GameRepository) ListByIDs(ctx context.Context, gameIDs []string) ([]game.Game, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}

	ids := make([]any, 0, len(gameIDs))
	for _, id := range gameIDs {
		ids = append(ids, id)
	}

	query, args, err := qb.Select(gameColumns...).
		From("games").
		Where(qb.In("id", ids)).
		OrderBy("kickoff", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select games by ids query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select games by ids: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *GameRepository) ListByKickoffWindow(ctx context.Context, from, to time.Time) ([]game.Game, error) {
	query, args, err := qb.Select(gameColumns...).
		From("games").
		Where(
			qb.Expr("kickoff >= ?", from.UTC()),
			qb.Expr("kickoff < ?", to.UTC()),
		).
		OrderBy("kickoff", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select games by kickoff window query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select games by kickoff window: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
