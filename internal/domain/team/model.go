package team

import (
	"fmt"
	"strings"
)

// Team is an NFL franchise. The ID is the league short code ("KC", "SF")
// shared by every schedule source we ingest.
type Team struct {
	ID      string
	Name    string
	LogoURL string
	Color   string
	EmojiID string
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("team id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}
	return nil
}

// NormalizeCode uppercases and trims a team short code for matching.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
