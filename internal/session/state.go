// Package session implements the client session state machine: a pure
// reducer over tagged actions, command handlers that call the backing
// stores, and synchronization effects keyed on the logged-in user.
package session

import (
	"sort"
	"time"

	"github.com/rplaut/tally/internal/github"
	"github.com/rplaut/tally/internal/note"
	"github.com/rplaut/tally/internal/user"
)

// State is the full session state. It is treated as immutable: the
// reducer returns a modified copy and slices are never mutated in place.
type State struct {
	// User is the logged-in user, nil when nobody is logged in.
	User *user.User `json:"user"`

	// Directory lists all known users, ordered by username. It backs
	// the logged-out picker and the logged-in all-users table, and is
	// re-fetched after every refresh-key bump.
	Directory []user.Summary `json:"directory"`

	// Count mirrors the logged-in user's persisted counter. The remote
	// copy is authoritative; Count may run ahead of it optimistically.
	Count int `json:"count"`

	ShowCounter bool `json:"show_counter"`
	Flash       bool `json:"flash"`

	// RefreshKey increments after every persisted counter mutation. It
	// carries no meaning of its own; it only signals dependent reloads.
	RefreshKey int `json:"refresh_key"`

	// Create-user form buffers.
	NameInput      string `json:"name_input"`
	NewTeam        string `json:"new_team"`
	NewRole        string `json:"new_role"`
	GitHubUsername string `json:"github_username"`

	// PullRequests holds the logged-in user's pull requests for the
	// configured repository, empty when logged out or unlinked.
	PullRequests []github.PullRequest `json:"pull_requests"`

	// Note draft buffer and the user's stored notes.
	NoteDate string      `json:"note_date"`
	NoteText string      `json:"note_text"`
	Notes    []note.Note `json:"notes"`
}

// initialState returns the state of a freshly created session: logged
// out, counter visible, note draft dated today.
func initialState(today string) State {
	return State{
		ShowCounter: true,
		NoteDate:    today,
	}
}

// SortedNotes returns a copy of the note list ordered newest-date-first.
// Notes are fetched ordered by created_at; display order is by date.
func (s State) SortedNotes() []note.Note {
	out := make([]note.Note, len(s.Notes))
	copy(out, s.Notes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// today formats t as the calendar date used for note drafts, always in
// UTC so the draft date does not depend on server locale.
func today(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
