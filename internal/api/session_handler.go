package api

import (
	"errors"
	"net/http"

	"github.com/rplaut/tally/internal/session"
	"github.com/rplaut/tally/internal/user"
)

// sessionCookie names the cookie carrying the opaque session token.
const sessionCookie = "tally_session"

// CommandMetrics counts session commands by outcome.
type CommandMetrics interface {
	IncSessionCommand(command, outcome string)
	IncSessionCreated()
}

// sessionHandler maps HTTP requests onto session commands. Every
// request is bound to one client session via the session cookie; a
// missing or expired token transparently starts a fresh, logged-out
// session.
type sessionHandler struct {
	registry *session.Registry
	metrics  CommandMetrics
}

func newSessionHandler(registry *session.Registry, m CommandMetrics) *sessionHandler {
	return &sessionHandler{registry: registry, metrics: m}
}

// stateEnvelope is the response shape for every state-returning
// endpoint. Notes are pre-sorted newest-date-first for display; Teams
// and Roles feed the create-user form.
type stateEnvelope struct {
	State session.State `json:"state"`
	Teams []string      `json:"teams"`
	Roles []string      `json:"roles"`
}

func envelope(s *session.Session) stateEnvelope {
	st := s.Snapshot()
	st.Notes = st.SortedNotes()
	return stateEnvelope{State: st, Teams: user.Teams, Roles: user.Roles}
}

// session resolves the client session for the request, creating one
// (and setting the cookie) when needed. Returns nil after writing an
// error response.
func (h *sessionHandler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := h.registry.Get(c.Value); ok {
			return sess
		}
	}

	token, sess, err := h.registry.Create()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create session")
		return nil
	}
	if h.metrics != nil {
		h.metrics.IncSessionCreated()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func (h *sessionHandler) countCommand(command string, err error) {
	if h.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	h.metrics.IncSessionCommand(command, outcome)
}

// writeCommandError maps session errors onto the HTTP error envelope.
// The messages mirror the alerts the user sees.
func writeCommandError(w http.ResponseWriter, err error) {
	var verr *session.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", verr.Message)
	case errors.Is(err, session.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "duplicate_username", "Username already exists. Choose another.")
	case errors.Is(err, session.ErrNotLoggedIn):
		writeError(w, http.StatusUnauthorized, "not_logged_in", "Please select a user to begin.")
	case errors.Is(err, user.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Error logging in")
	default:
		writeError(w, http.StatusInternalServerError, "backend_error", "backend request failed")
	}
}

// GetState handles GET /api/v1/state.
func (h *sessionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, envelope(sess))
}

// Login handles POST /api/v1/login.
func (h *sessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	err := sess.Login(r.Context(), req.Username)
	h.countCommand("login", err)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(sess))
}

// Logout handles POST /api/v1/logout. Logout is purely local; the
// session itself stays alive.
func (h *sessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	sess.Logout()
	h.countCommand("logout", nil)
	writeJSON(w, http.StatusOK, envelope(sess))
}

// CreateUser handles POST /api/v1/users. The body may carry a partial
// form update, applied to the buffers before the command runs.
func (h *sessionHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var form session.FormUpdate
	if err := readOptionalJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	sess.UpdateForm(form)

	created, err := sess.CreateUser(r.Context())
	h.countCommand("create_user", err)
	if err != nil {
		writeCommandError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user":  created,
		"state": envelope(sess).State,
	})
}

// Increment handles POST /api/v1/counter/increment.
func (h *sessionHandler) Increment(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	sess.Increment(r.Context())
	h.countCommand("increment", nil)
	writeJSON(w, http.StatusOK, envelope(sess))
}

// Reset handles POST /api/v1/counter/reset.
func (h *sessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	sess.Reset(r.Context())
	h.countCommand("reset", nil)
	writeJSON(w, http.StatusOK, envelope(sess))
}

// Toggle handles POST /api/v1/counter/toggle.
func (h *sessionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	sess.ToggleCounter()
	h.countCommand("toggle", nil)
	writeJSON(w, http.StatusOK, envelope(sess))
}

// SubmitNote handles POST /api/v1/notes. Like CreateUser, the body may
// carry a partial form update first.
func (h *sessionHandler) SubmitNote(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var form session.FormUpdate
	if err := readOptionalJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	sess.UpdateForm(form)

	err := sess.SubmitNote(r.Context())
	h.countCommand("submit_note", err)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(sess))
}

// UpdateForm handles POST /api/v1/form, the SET_FIELD analog.
func (h *sessionHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var form session.FormUpdate
	if err := readJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	sess.UpdateForm(form)
	writeJSON(w, http.StatusOK, envelope(sess))
}
