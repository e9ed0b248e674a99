package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rplaut/tally/internal/github"
	"github.com/rplaut/tally/internal/note"
	"github.com/rplaut/tally/internal/user"
)

// DefaultFlashDelay is how long the counter flash pulse stays on.
const DefaultFlashDelay = 300 * time.Millisecond

// UserStore is the narrow user-store contract the session consumes.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	List(ctx context.Context) ([]user.Summary, error)
	Create(ctx context.Context, in user.CreateUserInput) (*user.User, error)
	UpdateCounter(ctx context.Context, id string, counter int) error
}

// NoteStore is the narrow note-store contract the session consumes.
type NoteStore interface {
	ListByUser(ctx context.Context, userID string) ([]note.Note, error)
	Create(ctx context.Context, in note.CreateNoteInput) (*note.Note, error)
}

// PullRequestLister fetches a repository's pull requests.
type PullRequestLister interface {
	ListPullRequests(ctx context.Context, owner, repo string) ([]github.PullRequest, error)
}

// Options configures a Session.
type Options struct {
	// Owner and Repo identify the repository queried for pull requests.
	Owner string
	Repo  string

	// FlashDelay overrides DefaultFlashDelay; zero keeps the default.
	FlashDelay time.Duration

	// Now overrides the clock; nil uses time.Now. Tests pin it.
	Now func() time.Time

	Logger *slog.Logger
}

// Session holds one client's state machine. All mutation flows through
// dispatch, which applies the reducer under a single lock; command
// handlers and effects only read snapshots and dispatch actions.
type Session struct {
	users UserStore
	notes NoteStore
	prs   PullRequestLister

	owner      string
	repo       string
	flashDelay time.Duration
	now        func() time.Time
	log        *slog.Logger

	mu         sync.Mutex
	state      State
	flashTimer *time.Timer

	effects sync.WaitGroup
}

// New creates a session in the logged-out state and starts its initial
// synchronization (directory load, empty pull-request list).
func New(users UserStore, notes NoteStore, prs PullRequestLister, opts Options) *Session {
	if opts.FlashDelay == 0 {
		opts.FlashDelay = DefaultFlashDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Session{
		users:      users,
		notes:      notes,
		prs:        prs,
		owner:      opts.Owner,
		repo:       opts.Repo,
		flashDelay: opts.FlashDelay,
		now:        opts.Now,
		log:        opts.Logger,
	}
	s.state = initialState(today(s.now()))
	s.runEffects(nil)
	return s
}

// Snapshot returns a copy of the current state. Slices in the copy are
// shared and must not be mutated.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// dispatch applies an action and re-runs the synchronization effects
// when the logged-in user changed. A refresh-key bump re-fetches the
// user directory so the all-users table tracks persisted counters.
func (s *Session) dispatch(a Action) {
	s.mu.Lock()
	prev := s.state
	s.state = reduce(s.state, a)
	cur := s.state
	s.mu.Unlock()

	if userKey(prev.User) != userKey(cur.User) {
		s.runEffects(cur.User)
	}
	if prev.RefreshKey != cur.RefreshKey {
		s.effects.Add(1)
		go func() {
			defer s.effects.Done()
			s.refreshDirectory()
		}()
	}
}

func userKey(u *user.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}

// runEffects starts the two reactive procedures keyed on the current
// user. They run without cancellation: a slow fetch may dispatch after
// the state has moved on, and last dispatch wins.
func (s *Session) runEffects(u *user.User) {
	s.effects.Add(2)
	go func() {
		defer s.effects.Done()
		s.syncDirectory(u)
	}()
	go func() {
		defer s.effects.Done()
		s.syncPullRequests(u)
	}()
}

// WaitForEffects blocks until all in-flight synchronization effects have
// dispatched.
func (s *Session) WaitForEffects() {
	s.effects.Wait()
}

// syncDirectory reloads the user directory while nobody is logged in.
// Login does not trigger a reload; while logged in the directory only
// refreshes through refreshDirectory after persisted counter writes.
func (s *Session) syncDirectory(u *user.User) {
	if u != nil {
		return
	}
	s.refreshDirectory()
}

// refreshDirectory replaces the directory with a fresh fetch. Failures
// log and keep the previous list.
func (s *Session) refreshDirectory() {
	users, err := s.users.List(context.Background())
	if err != nil {
		s.log.Error("directory fetch failed", "error", err)
		return
	}
	s.dispatch(directoryLoaded{users: users})
}

// syncPullRequests reloads the pull-request list for the current user.
// No user or no linked GitHub account yields an empty list without a
// fetch; fetch errors degrade to an empty list and are only logged.
func (s *Session) syncPullRequests(u *user.User) {
	if u == nil || u.GitHubUsername == "" {
		s.dispatch(pullRequestsLoaded{})
		return
	}

	prs, err := s.prs.ListPullRequests(context.Background(), s.owner, s.repo)
	if err != nil {
		s.log.Error("pull request fetch failed", "owner", s.owner, "repo", s.repo, "error", err)
		s.dispatch(pullRequestsLoaded{})
		return
	}
	s.dispatch(pullRequestsLoaded{prs: github.FilterByAuthor(prs, u.GitHubUsername)})
}

// Login fetches the user by exact username and logs them in. On any
// lookup failure no state changes and the error is surfaced to the
// caller. The follow-up note fetch degrades to an empty list.
func (s *Session) Login(ctx context.Context, username string) error {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("logging in as %q: %w", username, err)
	}

	s.dispatch(loginSucceeded{user: u})

	notes, err := s.notes.ListByUser(ctx, u.ID)
	if err != nil {
		s.log.Error("note fetch failed", "user_id", u.ID, "error", err)
		notes = nil
	}
	s.dispatch(notesLoaded{notes: notes})
	return nil
}

// CreateUser validates the create-user form buffers in order (username,
// team, role, duplicate check) and inserts a new user with a zero
// counter. Creation does not log the new user in.
func (s *Session) CreateUser(ctx context.Context) (*user.User, error) {
	st := s.Snapshot()

	username := strings.TrimSpace(st.NameInput)
	if username == "" {
		return nil, &ValidationError{Field: "username", Message: "Please enter a username."}
	}
	if !user.ValidTeam(st.NewTeam) {
		return nil, &ValidationError{Field: "team", Message: "Please select a team."}
	}
	if !user.ValidRole(st.NewRole) {
		return nil, &ValidationError{Field: "role", Message: "Please select a role."}
	}

	// Best-effort existence check. A failed lookup other than not-found
	// falls through to the insert, where the unique constraint decides.
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, user.ErrNotFound) {
		s.log.Warn("duplicate check failed, attempting insert", "username", username, "error", err)
	}

	created, err := s.users.Create(ctx, user.CreateUserInput{
		Username:       username,
		Team:           st.NewTeam,
		Role:           st.NewRole,
		GitHubUsername: strings.TrimSpace(st.GitHubUsername),
	})
	if err != nil {
		return nil, fmt.Errorf("creating user %q: %w", username, err)
	}

	s.dispatch(userCreated{summary: created.Summary()})
	return created, nil
}

// Increment bumps the counter optimistically, then persists it when a
// user is logged in. A failed persist is logged and never rolled back;
// the displayed value may run ahead of the stored one until the next
// login.
func (s *Session) Increment(ctx context.Context) int {
	s.mu.Lock()
	newCount := s.state.Count + 1
	u := s.state.User
	s.mu.Unlock()

	s.dispatch(countSet{value: newCount})

	if u != nil {
		if err := s.users.UpdateCounter(ctx, u.ID, newCount); err != nil {
			s.log.Error("counter persist failed", "user_id", u.ID, "counter", newCount, "error", err)
		}
		s.dispatch(refreshBumped{})
	}
	return newCount
}

// Reset zeroes the counter and starts the flash pulse, persisting when
// logged in. The pulse ends after the flash delay regardless of the
// persistence outcome; re-triggering restarts the timer.
func (s *Session) Reset(ctx context.Context) {
	s.dispatch(countSet{value: 0})
	s.dispatch(flashSet{on: true})

	s.mu.Lock()
	u := s.state.User
	if s.flashTimer != nil {
		s.flashTimer.Stop()
	}
	s.flashTimer = time.AfterFunc(s.flashDelay, func() {
		s.dispatch(flashSet{on: false})
	})
	s.mu.Unlock()

	if u != nil {
		if err := s.users.UpdateCounter(ctx, u.ID, 0); err != nil {
			s.log.Error("counter persist failed", "user_id", u.ID, "counter", 0, "error", err)
		}
		s.dispatch(refreshBumped{})
	}
}

// SubmitNote inserts the drafted note for the logged-in user, then
// replaces the note list with a fresh fetch; the list is never appended
// locally, keeping server-assigned ids and ordering authoritative.
func (s *Session) SubmitNote(ctx context.Context) error {
	st := s.Snapshot()
	if st.User == nil {
		return ErrNotLoggedIn
	}

	text := strings.TrimSpace(st.NoteText)
	if text == "" {
		return &ValidationError{Field: "note_text", Message: "Please enter a note before submitting."}
	}

	date := st.NoteDate
	if date == "" {
		date = today(s.now())
	}

	if _, err := s.notes.Create(ctx, note.CreateNoteInput{
		UserID: st.User.ID,
		Date:   date,
		Text:   text,
	}); err != nil {
		return fmt.Errorf("saving note: %w", err)
	}

	notes, err := s.notes.ListByUser(ctx, st.User.ID)
	if err != nil {
		s.log.Error("note refetch failed", "user_id", st.User.ID, "error", err)
		notes = nil
	}
	s.dispatch(noteSubmitted{notes: notes, today: today(s.now())})
	return nil
}

// Logout is purely local; no backend call is made.
func (s *Session) Logout() {
	s.dispatch(loggedOut{})
}

// ToggleCounter flips the counter's visibility.
func (s *Session) ToggleCounter() {
	s.dispatch(counterToggled{})
}

// UpdateForm applies a partial update to the form buffers.
func (s *Session) UpdateForm(f FormUpdate) {
	s.dispatch(formUpdated{update: f})
}
