package contextkeys

type contextKey string

const (
	// UserKey: *entities.User, найденный по токену.
	UserKey contextKey = "User"
)
