package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Registry owns the live sessions, keyed by opaque token. Sessions are
// held in memory only: a client arriving without a valid token always
// starts a fresh, logged-out session.
type Registry struct {
	factory func() *Session
	ttl     time.Duration

	mu       sync.Mutex
	sessions map[string]*registryEntry
}

type registryEntry struct {
	sess     *Session
	lastSeen time.Time
}

// NewRegistry creates a registry that builds sessions with factory and
// expires them after ttl of inactivity.
func NewRegistry(factory func() *Session, ttl time.Duration) *Registry {
	return &Registry{
		factory:  factory,
		ttl:      ttl,
		sessions: make(map[string]*registryEntry),
	}
}

// Create builds a new session and returns its opaque token.
func (r *Registry) Create() (string, *Session, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", nil, fmt.Errorf("generating session token: %w", err)
	}
	token := hex.EncodeToString(b)

	sess := r.factory()

	r.mu.Lock()
	r.sessions[token] = &registryEntry{sess: sess, lastSeen: time.Now()}
	r.mu.Unlock()

	return token, sess, nil
}

// Get returns the session for token, refreshing its activity timestamp.
// Expired sessions are dropped and reported as missing.
func (r *Registry) Get(token string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[token]
	if !ok {
		return nil, false
	}
	if time.Since(e.lastSeen) > r.ttl {
		delete(r.sessions, token)
		return nil, false
	}
	e.lastSeen = time.Now()
	return e.sess, true
}

// Delete removes the session for token, if any.
func (r *Registry) Delete(token string) {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CleanExpired drops all sessions idle longer than the ttl and returns
// how many were removed.
func (r *Registry) CleanExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for token, e := range r.sessions {
		if time.Since(e.lastSeen) > r.ttl {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed
}

// Start runs the cleanup loop until ctx is canceled.
func (r *Registry) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.CleanExpired(); n > 0 {
				slog.Debug("expired sessions cleaned", "count", n)
			}
		}
	}
}
