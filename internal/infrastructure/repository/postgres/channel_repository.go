package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ottersden/otterball/internal/domain/channel"
	qb "github.com/ottersden/otterball/internal/platform/querybuilder"
)

type channelTableModel struct {
	ID                   int64         `db:"id"`
	Name                 string        `db:"name"`
	RoleID               sql.NullInt64 `db:"role_id"`
	LeaderboardMessageID sql.NullInt64 `db:"leaderboard_message_id"`
	DeleteResultMessage  bool          `db:"delete_result_message"`
	Active               bool          `db:"active"`
}

var channelColumns = []string{
	"id", "name", "role_id", "leaderboard_message_id",
	"delete_result_message", "active",
}

const channelUpsertSuffix = "ON CONFLICT (id) DO UPDATE SET " +
	"name = EXCLUDED.name, role_id = EXCLUDED.role_id, " +
	"delete_result_message = EXCLUDED.delete_result_message, " +
	"active = EXCLUDED.active"

func (m channelTableModel) toDomain() channel.Channel {
	return channel.Channel{
		ID:                   m.ID,
		Name:                 m.Name,
		RoleID:               nullInt64Ptr(m.RoleID),
		LeaderboardMessageID: nullInt64Ptr(m.LeaderboardMessageID),
		DeleteResultMessage:  m.DeleteResultMessage,
		Active:               m.Active,
	}
}

type ChannelRepository struct {
	db *sqlx.DB
}

func NewChannelRepository(db *sqlx.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

func (r *ChannelRepository) Upsert(ctx context.Context, ch channel.Channel) error {
	model := channelTableModel{
		ID:                   ch.ID,
		Name:                 ch.Name,
		RoleID:               nullInt64(ch.RoleID),
		LeaderboardMessageID: nullInt64(ch.LeaderboardMessageID),
		DeleteResultMessage:  ch.DeleteResultMessage,
		Active:               ch.Active,
	}

	query, args, err := qb.InsertModel("channels", model, channelUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert channel query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert channel %d: %w", ch.ID, err)
	}
	return nil
}

func (r *ChannelRepository) GetByID(ctx context.Context, channelID int64) (channel.Channel, bool, error) {
	query, args, err := qb.Select(channelColumns...).
		From("channels").
		Where(qb.Eq("id", channelID)).
		ToSQL()
	if err != nil {
		return channel.Channel{}, false, fmt.Errorf("build select channel query: %w", err)
	}

	var row channelTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return channel.Channel{}, false, nil
		}
		return channel.Channel{}, false, fmt.Errorf("select channel: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *ChannelRepository) ListActive(ctx context.Context) ([]channel.Channel, error) {
	query, args, err := qb.Select(channelColumns...).
		From("channels").
		Where(qb.Eq("active", true)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select active channels query: %w", err)
	}

	var rows []channelTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select active channels: %w", err)
	}

	out := make([]channel.Channel, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ChannelRepository) SetLeaderboardMessageID(ctx context.Context, channelID, messageID int64) error {
	query, args, err := qb.Update("channels").
		Set("leaderboard_message_id", messageID).
		Where(qb.Eq("id", channelID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update leaderboard message query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update leaderboard message: %w", err)
	}
	return nil
}
