package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ottersden/otterball/internal/domain/gametype"
	qb "github.com/ottersden/otterball/internal/platform/querybuilder"
)

type gameTypeTableModel struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

type scalingTableModel struct {
	ChannelID  int64   `db:"channel_id"`
	GameTypeID string  `db:"game_type_id"`
	Factor     float64 `db:"factor"`
}

type GameTypeRepository struct {
	db *sqlx.DB
}

func NewGameTypeRepository(db *sqlx.DB) *GameTypeRepository {
	return &GameTypeRepository{db: db}
}

func (r *GameTypeRepository) UpsertTypes(ctx context.Context, types []gametype.GameType) error {
	if len(types) == 0 {
		return nil
	}

	builder := qb.InsertInto("game_types").Columns("id", "name")
	for _, gt := range types {
		builder.Values(gt.ID, gt.Name)
	}
	query, args, err := builder.
		Suffix("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert game types query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert game types: %w", err)
	}
	return nil
}

func (r *GameTypeRepository) ListTypes(ctx context.Context) ([]gametype.GameType, error) {
	query, args, err := qb.Select("id", "name").From("game_types").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select game types query: %w", err)
	}

	var rows []gameTypeTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select game types: %w", err)
	}

	out := make([]gametype.GameType, 0, len(rows))
	for _, row := range rows {
		out = append(out, gametype.GameType{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

func (r *GameTypeRepository) EnsureScalings(ctx context.Context, channelID int64, gameTypeIDs []string) error {
	if len(gameTypeIDs) == 0 {
		return nil
	}

	builder := qb.InsertInto("game_type_scalings").Columns("channel_id", "game_type_id", "factor")
	for _, id := range gameTypeIDs {
		builder.Values(channelID, id, gametype.DefaultFactor)
	}
	query, args, err := builder.
		Suffix("ON CONFLICT (channel_id, game_type_id) DO NOTHING").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build ensure scalings query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("ensure scalings: %w", err)
	}
	return nil
}

func (r *GameTypeRepository) ListScalings(ctx context.Context, channelID int64) ([]gametype.Scaling, error) {
	query, args, err := qb.Select("channel_id", "game_type_id", "factor").
		From("game_type_scalings").
		Where(qb.Eq("channel_id", channelID)).
		OrderBy("game_type_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select scalings query: %w", err)
	}

	var rows []scalingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select scalings: %w", err)
	}

	out := make([]gametype.Scaling, 0, len(rows))
	for _, row := range rows {
		out = append(out, gametype.Scaling{
			ChannelID:  row.ChannelID,
			GameTypeID: row.GameTypeID,
			Factor:     row.Factor,
		})
	}
	return out, nil
}
