package session

import "errors"

var (
	// ErrDuplicateUsername is returned when the pre-insert existence
	// check finds a user with the requested username. The check is
	// best-effort, not transactional; the users table's unique
	// constraint catches the race at insert time.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrNotLoggedIn is returned by commands that require a logged-in
	// user.
	ErrNotLoggedIn = errors.New("no user is logged in")
)

// ValidationError is a local input failure, resolved before any backend
// call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
