package poll

// State is the lifecycle position of a poll. Transitions are monotonic:
// a poll never moves back toward pending.
type State string

const (
	StatePending       State = "pending"
	StateCreated       State = "created"
	StateOpen          State = "open"
	StateClosed        State = "closed"
	StateResultsPosted State = "results_posted"
)

// Poll tracks one prediction poll per (channel, game) pair.
type Poll struct {
	ID            int64
	ChannelID     int64
	GameID        string
	MessageID     *int64
	Closed        bool
	ResultPosted  bool
}

// State derives the lifecycle position from the stored flags. A pair with no
// row at all is StatePending; that case never reaches a Poll value.
func (p Poll) State() State {
	switch {
	case p.ResultPosted:
		return StateResultsPosted
	case p.Closed:
		return StateClosed
	case p.MessageID != nil:
		return StateOpen
	default:
		return StateCreated
	}
}
