package note

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for notes.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new note store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ListByUser returns all notes for the given user ordered by created_at
// DESC. Display re-sorts by date; this ordering is the fetch contract.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Note, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, to_char(date, 'YYYY-MM-DD'), note_text, created_at
		 FROM notes WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.Date, &n.Text, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning note row: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Create inserts a new note.
func (s *Store) Create(ctx context.Context, in CreateNoteInput) (*Note, error) {
	n := &Note{}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO notes (user_id, date, note_text)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, to_char(date, 'YYYY-MM-DD'), note_text, created_at`,
		in.UserID, in.Date, in.Text,
	).Scan(&n.ID, &n.UserID, &n.Date, &n.Text, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}
	return n, nil
}
