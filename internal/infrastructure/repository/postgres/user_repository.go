package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ottersden/otterball/internal/domain/user"
	qb "github.com/ottersden/otterball/internal/platform/querybuilder"
)

type userTableModel struct {
	ID       int64  `db:"id"`
	Username string `db:"username"`
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) UpsertMany(ctx context.Context, users []user.User) error {
	if len(users) == 0 {
		return nil
	}

	builder := qb.InsertInto("users").Columns("id", "username")
	for _, u := range users {
		builder.Values(u.ID, u.Username)
	}
	query, args, err := builder.
		Suffix("ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert users query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert users: %w", err)
	}
	return nil
}

func (r *UserRepository) ListByIDs(ctx context.Context, userIDs []int64) ([]user.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	ids := make([]any, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id)
	}

	query, args, err := qb.Select("id", "username").
		From("users").
		Where(qb.In("id", ids)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select users query: %w", err)
	}

	var rows []userTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}

	out := make([]user.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, user.User{ID: row.ID, Username: row.Username})
	}
	return out, nil
}
