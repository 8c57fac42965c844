package postgres

import "github.com/ottersden/otterball/internal/domain/team"

type teamTableModel struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	LogoURL string `db:"logo_url"`
	Color   string `db:"color"`
	EmojiID string `db:"emoji_id"`
}

func teamModelFromDomain(t team.Team) teamTableModel {
	return teamTableModel{
		ID:      t.ID,
		Name:    t.Name,
		LogoURL: t.LogoURL,
		Color:   t.Color,
		EmojiID: t.EmojiID,
	}
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:      m.ID,
		Name:    m.Name,
		LogoURL: m.LogoURL,
		Color:   m.Color,
		EmojiID: m.EmojiID,
	}
}
