package channel

// Channel is a Discord channel enrolled for prediction polls.
type Channel struct {
	ID                   int64
	Name                 string
	RoleID               *int64
	LeaderboardMessageID *int64
	DeleteResultMessage  bool
	Active               bool
}
