package gametype

// GameType is one entry of the closed NFL game-type catalogue.
type GameType struct {
	ID   string
	Name string
}

const (
	TypeRegular      = "REG"
	TypeWildCard     = "WC"
	TypeDivisional   = "DIV"
	TypeConference   = "CON"
	TypeChampionship = "SB"
)

// Catalogue returns the full closed set of game types.
func Catalogue() []GameType {
	return []GameType{
		{ID: TypeRegular, Name: "Regular Season"},
		{ID: TypeWildCard, Name: "Wild Card Round"},
		{ID: TypeDivisional, Name: "Divisional Round"},
		{ID: TypeConference, Name: "Conference Championship"},
		{ID: TypeChampionship, Name: "Super Bowl"},
	}
}

// Scaling is the per-channel point multiplier for one game type.
// Rows are seeded lazily with DefaultFactor.
type Scaling struct {
	ChannelID  int64
	GameTypeID string
	Factor     float64
}

const DefaultFactor = 1.0
