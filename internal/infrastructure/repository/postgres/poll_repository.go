package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ottersden/otterball/internal/domain/poll"
	qb "github.com/ottersden/otterball/internal/platform/querybuilder"
)

type pollTableModel struct {
	ID           int64         `db:"id"`
	ChannelID    int64         `db:"channel_id"`
	GameID       string        `db:"game_id"`
	MessageID    sql.NullInt64 `db:"message_id"`
	Closed       bool          `db:"closed"`
	ResultPosted bool          `db:"result_posted"`
}

var pollColumns = []string{
	"id", "channel_id", "game_id", "message_id", "closed", "result_posted",
}

func (m pollTableModel) toDomain() poll.Poll {
	return poll.Poll{
		ID:           m.ID,
		ChannelID:    m.ChannelID,
		GameID:       m.GameID,
		MessageID:    nullInt64Ptr(m.MessageID),
		Closed:       m.Closed,
		ResultPosted: m.ResultPosted,
	}
}

type PollRepository struct {
	db *sqlx.DB
}

func NewPollRepository(db *sqlx.DB) *PollRepository {
	return &PollRepository{db: db}
}

// Create inserts the poll row. An existing (channel, game) pair is left
// untouched and reported as not created.
func (r *PollRepository) Create(ctx context.Context, p poll.Poll) (bool, error) {
	query, args, err := qb.InsertInto("polls").
		Columns("channel_id", "game_id").
		Values(p.ChannelID, p.GameID).
		Suffix("ON CONFLICT (channel_id, game_id) DO NOTHING").
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build insert poll query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert poll: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert poll rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *PollRepository) ListCreated(ctx context.Context) ([]poll.Poll, error) {
	return r.list(ctx, qb.IsNull("message_id"), qb.Eq("closed", false))
}

func (r *PollRepository) ListOpen(ctx context.Context) ([]poll.Poll, error) {
	return r.list(ctx, qb.Expr("message_id IS NOT NULL"), qb.Eq("closed", false))
}

func (r *PollRepository) ListAwaitingResults(ctx context.Context) ([]poll.Poll, error) {
	return r.list(ctx, qb.Eq("closed", true), qb.Eq("result_posted", false))
}

func (r *PollRepository) list(ctx context.Context, conditions ...qb.Condition) ([]poll.Poll, error) {
	query, args, err := qb.Select(pollColumns...).
		From("polls").
		Where(conditions...).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select polls query: %w", err)
	}

	var rows []pollTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select polls: %w", err)
	}

	out := make([]poll.Poll, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PollRepository) SetMessageID(ctx context.Context, pollID, messageID int64) error {
	return r.update(ctx, pollID, "message_id", messageID)
}

func (r *PollRepository) MarkClosed(ctx context.Context, pollID int64) error {
	return r.update(ctx, pollID, "closed", true)
}

func (r *PollRepository) MarkResultPosted(ctx context.Context, pollID int64) error {
	return r.update(ctx, pollID, "result_posted", true)
}

func (r *PollRepository) update(ctx context.Context, pollID int64, column string, value any) error {
	query, args, err := qb.Update("polls").
		Set(column, value).
		Where(qb.Eq("id", pollID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update poll %s query: %w", column, err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update poll %s: %w", column, err)
	}
	return nil
}
