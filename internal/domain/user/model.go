package user

// User is a Discord account observed through a wager. Rows are created
// lazily on first sight.
type User struct {
	ID       int64
	Username string
}
