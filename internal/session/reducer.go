package session

import "github.com/rplaut/tally/internal/user"

// reduce applies a single action to the state and returns the next
// state. It is pure: no I/O, no clock, no mutation of the input.
// Unrecognized actions return the state unchanged.
func reduce(s State, a Action) State {
	switch a := a.(type) {
	case loginSucceeded:
		if a.user == nil {
			return s
		}
		s.User = a.user
		s.Count = a.user.Counter
		if s.Count < 0 {
			s.Count = 0
		}

	case notesLoaded:
		s.Notes = a.notes

	case loggedOut:
		s.User = nil
		s.Count = 0
		s.Notes = nil
		s.PullRequests = nil
		// Directory stays: the logged-out effect repopulates it.

	case countSet:
		s.Count = a.value

	case flashSet:
		s.Flash = a.on

	case refreshBumped:
		s.RefreshKey++

	case counterToggled:
		s.ShowCounter = !s.ShowCounter

	case directoryLoaded:
		s.Directory = a.users

	case pullRequestsLoaded:
		s.PullRequests = a.prs

	case userCreated:
		s.NameInput = ""
		s.NewTeam = ""
		s.NewRole = ""
		s.GitHubUsername = ""
		dir := make([]user.Summary, 0, len(s.Directory)+1)
		dir = append(dir, s.Directory...)
		s.Directory = append(dir, a.summary)

	case noteSubmitted:
		s.NoteText = ""
		s.NoteDate = a.today
		s.Notes = a.notes

	case formUpdated:
		if a.update.NameInput != nil {
			s.NameInput = *a.update.NameInput
		}
		if a.update.NewTeam != nil {
			s.NewTeam = *a.update.NewTeam
		}
		if a.update.NewRole != nil {
			s.NewRole = *a.update.NewRole
		}
		if a.update.GitHubUsername != nil {
			s.GitHubUsername = *a.update.GitHubUsername
		}
		if a.update.NoteDate != nil {
			s.NoteDate = *a.update.NoteDate
		}
		if a.update.NoteText != nil {
			s.NoteText = *a.update.NoteText
		}
	}
	return s
}
