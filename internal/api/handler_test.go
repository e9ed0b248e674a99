package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rplaut/tally/internal/github"
	"github.com/rplaut/tally/internal/note"
	"github.com/rplaut/tally/internal/session"
	"github.com/rplaut/tally/internal/user"
)

// ---------------------------------------------------------------------------
// Fakes backing the sessions under test
// ---------------------------------------------------------------------------

type fakeUserStore struct {
	users map[string]*user.User
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*user.User, error) {
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserStore) List(_ context.Context) ([]user.Summary, error) {
	var out []user.Summary
	for _, u := range f.users {
		out = append(out, u.Summary())
	}
	return out, nil
}

func (f *fakeUserStore) Create(_ context.Context, in user.CreateUserInput) (*user.User, error) {
	u := &user.User{ID: "u-" + in.Username, Username: in.Username, Team: in.Team, Role: in.Role}
	f.users[in.Username] = u
	return u, nil
}

func (f *fakeUserStore) UpdateCounter(_ context.Context, id string, counter int) error {
	for _, u := range f.users {
		if u.ID == id {
			u.Counter = counter
			return nil
		}
	}
	return user.ErrNotFound
}

type fakeNoteStore struct {
	notes map[string][]note.Note
}

func (f *fakeNoteStore) ListByUser(_ context.Context, userID string) ([]note.Note, error) {
	return append([]note.Note(nil), f.notes[userID]...), nil
}

func (f *fakeNoteStore) Create(_ context.Context, in note.CreateNoteInput) (*note.Note, error) {
	n := note.Note{ID: "n-1", UserID: in.UserID, Date: in.Date, Text: in.Text, CreatedAt: time.Now()}
	f.notes[in.UserID] = append([]note.Note{n}, f.notes[in.UserID]...)
	return &n, nil
}

type fakePRLister struct{}

func (fakePRLister) ListPullRequests(context.Context, string, string) ([]github.PullRequest, error) {
	return nil, nil
}

func newTestRouter() http.Handler {
	users := &fakeUserStore{users: map[string]*user.User{
		"bob": {ID: "u-bob", Username: "bob", Counter: 5, Team: "PMO", Role: "Engineer"},
	}}
	notes := &fakeNoteStore{notes: map[string][]note.Note{}}

	registry := session.NewRegistry(func() *session.Session {
		return session.New(users, notes, fakePRLister{}, session.Options{
			Owner: "rplaut", Repo: "react-counter", FlashDelay: 5 * time.Millisecond,
		})
	}, time.Minute)

	return NewRouter(RouterDeps{Registry: registry})
}

// client drives the router carrying the session cookie across requests.
type client struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "tally_session" {
			c.cookie = ck
		}
	}
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) stateEnvelope {
	t.Helper()
	var env stateEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode state envelope: %v", err)
	}
	return env
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthCheck(t *testing.T) {
	handler := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status=ok, got %q", body["status"])
	}
}

func TestStateStartsLoggedOut(t *testing.T) {
	c := &client{t: t, handler: newTestRouter()}

	rec := c.do(http.MethodGet, "/api/v1/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if c.cookie == nil {
		t.Fatal("expected a session cookie to be set")
	}

	env := decodeEnvelope(t, rec)
	if env.State.User != nil {
		t.Error("fresh session must start logged out")
	}
	if len(env.Teams) == 0 || len(env.Roles) == 0 {
		t.Error("expected teams and roles in the envelope")
	}
}

func TestLoginFlow(t *testing.T) {
	c := &client{t: t, handler: newTestRouter()}

	rec := c.do(http.MethodPost, "/api/v1/login", `{"username":"bob"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.State.User == nil || env.State.User.Username != "bob" {
		t.Fatalf("expected bob logged in, got %+v", env.State.User)
	}
	if env.State.Count != 5 {
		t.Errorf("expected count 5, got %d", env.State.Count)
	}

	// The session survives across requests via the cookie.
	rec = c.do(http.MethodGet, "/api/v1/state", "")
	env = decodeEnvelope(t, rec)
	if env.State.User == nil || env.State.User.Username != "bob" {
		t.Error("expected session to persist across requests")
	}
}

func TestLoginUnknownUsername(t *testing.T) {
	c := &client{t: t, handler: newTestRouter()}

	rec := c.do(http.MethodPost, "/api/v1/login", `{"username":"nobody"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var env errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if env.Error.Code != "not_found" {
		t.Errorf("expected not_found, got %q", env.Error.Code)
	}
}

func TestIncrementAndLogout(t *testing.T) {
	c := &client{t: t, handler: newTestRouter()}
	c.do(http.MethodPost, "/api/v1/login", `{"username":"bob"}`)

	rec := c.do(http.MethodPost, "/api/v1/counter/increment", "")
	env := decodeEnvelope(t, rec)
	if env.State.Count != 6 {
		t.Errorf("expected count 6 after increment, got %d", env.State.Count)
	}
	if env.State.RefreshKey != 1 {
		t.Errorf("expected refresh key 1, got %d", env.State.RefreshKey)
	}

	rec = c.do(http.MethodPost, "/api/v1/logout", "")
	env = decodeEnvelope(t, rec)
	if env.State.User != nil || env.State.Count != 0 {
		t.Errorf("expected logged-out state, got %+v", env.State)
	}
}

func TestCreateUserValidation(t *testing.T) {
	c := &client{t: t, handler: newTestRouter()}

	rec := c.do(http.MethodPost, "/api/v1/users", `{"name_input":"", "new_team":"", "new_role":""}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	rec = c.do(http.MethodPost, "/api/v1/users", `{"name_input":"bob", "new_team":"PMO", "new_role":"Engineer"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d", rec.Code)
	}

	rec = c.do(http.MethodPost, "/api/v1/users", `{"name_input":"carol", "new_team":"PRODUCT", "new_role":"VP of Product"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitNoteBlank(t *testing.T) {
	c := &client{t: t, handler: newTestRouter()}
	c.do(http.MethodPost, "/api/v1/login", `{"username":"bob"}`)

	rec := c.do(http.MethodPost, "/api/v1/notes", `{"note_text":"   "}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for blank note, got %d", rec.Code)
	}
}

func TestSubmitNoteSuccess(t *testing.T) {
	c := &client{t: t, handler: newTestRouter()}
	c.do(http.MethodPost, "/api/v1/login", `{"username":"bob"}`)

	rec := c.do(http.MethodPost, "/api/v1/notes", `{"note_date":"2024-04-30","note_text":"shipped it"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if len(env.State.Notes) != 1 || env.State.Notes[0].Text != "shipped it" {
		t.Errorf("expected refreshed note list, got %+v", env.State.Notes)
	}
	if env.State.NoteText != "" {
		t.Errorf("expected draft cleared, got %q", env.State.NoteText)
	}
}

func TestSubmitNoteRequiresLogin(t *testing.T) {
	c := &client{t: t, handler: newTestRouter()}

	rec := c.do(http.MethodPost, "/api/v1/notes", `{"note_text":"orphan"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestFormUpdate(t *testing.T) {
	c := &client{t: t, handler: newTestRouter()}

	rec := c.do(http.MethodPost, "/api/v1/form", `{"name_input":"dave","new_team":"ENGINEERING"}`)
	env := decodeEnvelope(t, rec)
	if env.State.NameInput != "dave" || env.State.NewTeam != "ENGINEERING" {
		t.Errorf("expected form buffers updated, got %+v", env.State)
	}
}

func TestToggleCounter(t *testing.T) {
	c := &client{t: t, handler: newTestRouter()}

	rec := c.do(http.MethodPost, "/api/v1/counter/toggle", "")
	env := decodeEnvelope(t, rec)
	if env.State.ShowCounter {
		t.Error("expected counter hidden after toggle")
	}
}
