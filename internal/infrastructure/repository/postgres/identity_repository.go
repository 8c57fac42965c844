package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ottersden/otterball/internal/domain/identity"
	qb "github.com/ottersden/otterball/internal/platform/querybuilder"
)

type gameIdentifierTableModel struct {
	Source     string `db:"source"`
	ExternalID string `db:"external_id"`
	GameID     string `db:"game_id"`
}

type teamIdentifierTableModel struct {
	Source     string `db:"source"`
	ExternalID string `db:"external_id"`
	TeamID     string `db:"team_id"`
}

type IdentityRepository struct {
	db *sqlx.DB
}

func NewIdentityRepository(db *sqlx.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) UpsertGameIdentifiers(ctx context.Context, identifiers []identity.GameIdentifier) error {
	if len(identifiers) == 0 {
		return nil
	}

	builder := qb.InsertInto("game_identifiers").Columns("source", "external_id", "game_id")
	for _, id := range identifiers {
		builder.Values(string(id.Source), id.ExternalID, id.GameID)
	}
	query, args, err := builder.
		Suffix("ON CONFLICT (source, external_id) DO UPDATE SET game_id = EXCLUDED.game_id").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert game identifiers query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert game identifiers: %w", err)
	}
	return nil
}

func (r *IdentityRepository) UpsertTeamIdentifiers(ctx context.Context, identifiers []identity.TeamIdentifier) error {
	if len(identifiers) == 0 {
		return nil
	}

	builder := qb.InsertInto("team_identifiers").Columns("source", "external_id", "team_id")
	for _, id := range identifiers {
		builder.Values(string(id.Source), id.ExternalID, id.TeamID)
	}
	query, args, err := builder.
		Suffix("ON CONFLICT (source, external_id) DO UPDATE SET team_id = EXCLUDED.team_id").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert team identifiers query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert team identifiers: %w", err)
	}
	return nil
}

func (r *IdentityRepository) ListGameIdentifiers(ctx context.Context, source identity.Source) ([]identity.GameIdentifier, error) {
	query, args, err := qb.Select("source", "external_id", "game_id").
		From("game_identifiers").
		Where(qb.Eq("source", string(source))).
		OrderBy("external_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select game identifiers query: %w", err)
	}

	var rows []gameIdentifierTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select game identifiers: %w", err)
	}

	out := make([]identity.GameIdentifier, 0, len(rows))
	for _, row := range rows {
		out = append(out, identity.GameIdentifier{
			Source:     identity.Source(row.Source),
			ExternalID: row.ExternalID,
			GameID:     row.GameID,
		})
	}
	return out, nil
}

func (r *IdentityRepository) ListTeamIdentifiers(ctx context.Context, source identity.Source) ([]identity.TeamIdentifier, error) {
	query, args, err := qb.Select("source", "external_id", "team_id").
		From("team_identifiers").
		Where(qb.Eq("source", string(source))).
		OrderBy("external_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select team identifiers query: %w", err)
	}

	var rows []teamIdentifierTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select team identifiers: %w", err)
	}

	out := make([]identity.TeamIdentifier, 0, len(rows))
	for _, row := range rows {
		out = append(out, identity.TeamIdentifier{
			Source:     identity.Source(row.Source),
			ExternalID: row.ExternalID,
			TeamID:     row.TeamID,
		})
	}
	return out, nil
}
