package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ottersden/otterball/internal/domain/game"
	"github.com/ottersden/otterball/internal/domain/wager"
	qb "github.com/ottersden/otterball/internal/platform/querybuilder"
)

type wagerTableModel struct {
	UserID    int64  `db:"user_id"`
	GameID    string `db:"game_id"`
	ChannelID int64  `db:"channel_id"`
	Choice    int    `db:"choice"`
}

func (m wagerTableModel) toDomain() wager.Wager {
	return wager.Wager{
		UserID:    m.UserID,
		GameID:    m.GameID,
		ChannelID: m.ChannelID,
		Choice:    game.Outcome(m.Choice),
	}
}

type WagerRepository struct {
	db *sqlx.DB
}

func NewWagerRepository(db *sqlx.DB) *WagerRepository {
	return &WagerRepository{db: db}
}

func (r *WagerRepository) Upsert(ctx context.Context, w wager.Wager) error {
	query, args, err := qb.InsertInto("wagers").
		Columns("user_id", "game_id", "channel_id", "choice").
		Values(w.UserID, w.GameID, w.ChannelID, int(w.Choice)).
		Suffix("ON CONFLICT (user_id, game_id, channel_id) DO UPDATE SET choice = EXCLUDED.choice").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert wager query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert wager: %w", err)
	}
	return nil
}

func (r *WagerRepository) Delete(ctx context.Context, key wager.Key) error {
	query, args, err := qb.DeleteFrom("wagers").
		Where(
			qb.Eq("user_id", key.UserID),
			qb.Eq("game_id", key.GameID),
			qb.Eq("channel_id", key.ChannelID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete wager query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete wager: %w", err)
	}
	return nil
}

func (r *WagerRepository) ListByPoll(ctx context.Context, channelID int64, gameID string) ([]wager.Wager, error) {
	return r.list(ctx, qb.Eq("channel_id", channelID), qb.Eq("game_id", gameID))
}

func (r *WagerRepository) ListByChannel(ctx context.Context, channelID int64) ([]wager.Wager, error) {
	return r.list(ctx, qb.Eq("channel_id", channelID))
}

func (r *WagerRepository) list(ctx context.Context, conditions ...qb.Condition) ([]wager.Wager, error) {
	query, args, err := qb.Select("user_id", "game_id", "channel_id", "choice").
		From("wagers").
		Where(conditions...).
		OrderBy("game_id", "user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select wagers query: %w", err)
	}

	var rows []wagerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select wagers: %w", err)
	}

	out := make([]wager.Wager, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
