package session

import (
	"github.com/rplaut/tally/internal/github"
	"github.com/rplaut/tally/internal/note"
	"github.com/rplaut/tally/internal/user"
)

// Action is a tagged state transition consumed by the reducer. All
// mutation flows through actions; handlers never write State directly.
type Action interface {
	isAction()
}

type loginSucceeded struct {
	user *user.User
}

type notesLoaded struct {
	notes []note.Note
}

type loggedOut struct{}

type countSet struct {
	value int
}

type flashSet struct {
	on bool
}

type refreshBumped struct{}

type counterToggled struct{}

type directoryLoaded struct {
	users []user.Summary
}

type pullRequestsLoaded struct {
	prs []github.PullRequest
}

type userCreated struct {
	summary user.Summary
}

// noteSubmitted replaces the note list with a fresh fetch and resets the
// draft; today is carried in the action so the reducer stays pure.
type noteSubmitted struct {
	notes []note.Note
	today string
}

// FormUpdate is a partial update of the form buffers; nil fields are
// left untouched.
type FormUpdate struct {
	NameInput      *string `json:"name_input"`
	NewTeam        *string `json:"new_team"`
	NewRole        *string `json:"new_role"`
	GitHubUsername *string `json:"github_username"`
	NoteDate       *string `json:"note_date"`
	NoteText       *string `json:"note_text"`
}

type formUpdated struct {
	update FormUpdate
}

func (loginSucceeded) isAction()     {}
func (notesLoaded) isAction()        {}
func (loggedOut) isAction()          {}
func (countSet) isAction()           {}
func (flashSet) isAction()           {}
func (refreshBumped) isAction()      {}
func (counterToggled) isAction()     {}
func (directoryLoaded) isAction()    {}
func (pullRequestsLoaded) isAction() {}
func (userCreated) isAction()        {}
func (noteSubmitted) isAction()      {}
func (formUpdated) isAction()        {}
