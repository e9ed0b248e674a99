package session

import (
	"reflect"
	"testing"

	"github.com/rplaut/tally/internal/note"
	"github.com/rplaut/tally/internal/user"
)

// bogusAction is an action tag the reducer does not recognize.
type bogusAction struct{}

func (bogusAction) isAction() {}

func TestReducerUnrecognizedActionIsNoOp(t *testing.T) {
	s := initialState("2024-05-01")
	s.Count = 7
	s.NameInput = "draft"

	got := reduce(s, bogusAction{})
	if !reflect.DeepEqual(got, s) {
		t.Errorf("unrecognized action changed state:\n got %+v\nwant %+v", got, s)
	}
}

func TestReducerIsPure(t *testing.T) {
	s := initialState("2024-05-01")
	s.Directory = []user.Summary{{Username: "bob", Team: "PMO"}}
	before := s

	a := countSet{value: 3}
	first := reduce(s, a)
	second := reduce(s, a)

	if !reflect.DeepEqual(first, second) {
		t.Error("same (state, action) produced different results")
	}
	if !reflect.DeepEqual(s, before) {
		t.Error("reducer mutated its input state")
	}
}

func TestReducerLoginSuccess(t *testing.T) {
	s := initialState("2024-05-01")
	u := &user.User{ID: "u-1", Username: "bob", Counter: 5}

	got := reduce(s, loginSucceeded{user: u})
	if got.User != u {
		t.Error("expected user to be set")
	}
	if got.Count != 5 {
		t.Errorf("expected count 5, got %d", got.Count)
	}

	// A missing/invalid stored counter falls back to zero.
	got = reduce(s, loginSucceeded{user: &user.User{ID: "u-2", Counter: -1}})
	if got.Count != 0 {
		t.Errorf("expected count clamped to 0, got %d", got.Count)
	}
}

func TestReducerLoginWithNilUserIsNoOp(t *testing.T) {
	s := initialState("2024-05-01")
	s.Count = 3

	got := reduce(s, loginSucceeded{})
	if !reflect.DeepEqual(got, s) {
		t.Errorf("nil login user changed state:\n got %+v\nwant %+v", got, s)
	}
}

func TestReducerLogout(t *testing.T) {
	s := initialState("2024-05-01")
	s.User = &user.User{ID: "u-1"}
	s.Count = 9
	s.Notes = []note.Note{{ID: "n-1"}}
	s.Directory = []user.Summary{{Username: "bob"}}

	got := reduce(s, loggedOut{})
	if got.User != nil || got.Count != 0 || got.Notes != nil || got.PullRequests != nil {
		t.Errorf("logout left residue: %+v", got)
	}
	if len(got.Directory) != 1 {
		t.Error("logout must not clear the directory")
	}
}

func TestReducerUserCreated(t *testing.T) {
	s := initialState("2024-05-01")
	s.NameInput = "carol"
	s.NewTeam = "PRODUCT"
	s.NewRole = "VP of Product"
	s.GitHubUsername = "carolgh"
	s.Directory = []user.Summary{{Username: "bob"}}

	got := reduce(s, userCreated{summary: user.Summary{Username: "carol"}})
	if got.NameInput != "" || got.NewTeam != "" || got.NewRole != "" || got.GitHubUsername != "" {
		t.Errorf("form buffers not cleared: %+v", got)
	}
	if len(got.Directory) != 2 || got.Directory[1].Username != "carol" {
		t.Errorf("expected carol appended to directory, got %+v", got.Directory)
	}
	if len(s.Directory) != 1 {
		t.Error("reducer mutated the input directory slice")
	}
}

func TestReducerNoteSubmitted(t *testing.T) {
	s := initialState("2024-05-01")
	s.NoteText = "standup summary"
	s.NoteDate = "2024-04-30"
	fresh := []note.Note{{ID: "n-2"}, {ID: "n-1"}}

	got := reduce(s, noteSubmitted{notes: fresh, today: "2024-05-02"})
	if got.NoteText != "" {
		t.Errorf("expected draft text cleared, got %q", got.NoteText)
	}
	if got.NoteDate != "2024-05-02" {
		t.Errorf("expected draft date reset to today, got %q", got.NoteDate)
	}
	if !reflect.DeepEqual(got.Notes, fresh) {
		t.Error("expected note list replaced by the fresh fetch")
	}
}

func TestReducerRefreshBumpTouchesNothingElse(t *testing.T) {
	s := initialState("2024-05-01")
	s.Count = 4
	s.User = &user.User{ID: "u-1"}

	got := reduce(s, refreshBumped{})
	if got.RefreshKey != 1 {
		t.Errorf("expected refresh key 1, got %d", got.RefreshKey)
	}
	got.RefreshKey = s.RefreshKey
	if !reflect.DeepEqual(got, s) {
		t.Error("refresh bump changed more than the refresh key")
	}
}

func TestReducerToggle(t *testing.T) {
	s := initialState("2024-05-01")
	if !s.ShowCounter {
		t.Fatal("counter should start visible")
	}
	got := reduce(s, counterToggled{})
	if got.ShowCounter {
		t.Error("expected counter hidden after toggle")
	}
	if got = reduce(got, counterToggled{}); !got.ShowCounter {
		t.Error("expected counter visible after second toggle")
	}
}

func TestReducerFormUpdatePartial(t *testing.T) {
	s := initialState("2024-05-01")
	s.NameInput = "keep"

	team := "PMO"
	got := reduce(s, formUpdated{update: FormUpdate{NewTeam: &team}})
	if got.NewTeam != "PMO" {
		t.Errorf("expected team buffer set, got %q", got.NewTeam)
	}
	if got.NameInput != "keep" {
		t.Errorf("nil fields must be untouched, got %q", got.NameInput)
	}
}

func TestSortedNotes(t *testing.T) {
	s := initialState("2024-05-01")
	s.Notes = []note.Note{
		{ID: "a", Date: "2024-04-28"},
		{ID: "b", Date: "2024-05-01"},
		{ID: "c", Date: "2024-04-30"},
	}

	got := s.SortedNotes()
	want := []string{"b", "c", "a"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("expected order %v, got %+v", want, got)
		}
	}
	if s.Notes[0].ID != "a" {
		t.Error("SortedNotes mutated the stored list")
	}
}
