package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// Store provides database operations for users.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new user store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func scanUser(scan func(dest ...any) error) (*User, error) {
	u := &User{}
	err := scan(&u.ID, &u.Username, &u.Counter, &u.Team, &u.Role, &u.GitHubUsername, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByUsername retrieves a user by exact, case-sensitive username match.
// Returns ErrNotFound when no row matches.
func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`SELECT id, username, counter, team, role, COALESCE(github_username, ''), created_at
			 FROM users WHERE username = $1`, username,
		).Scan(dest...)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// List returns directory summaries for all users ordered by username ASC.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT username, counter, team, role, COALESCE(github_username, '')
		 FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.Username, &sum.Counter, &sum.Team, &sum.Role, &sum.GitHubUsername); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, sum)
	}
	return users, rows.Err()
}

// Create inserts a new user with a zero counter.
func (s *Store) Create(ctx context.Context, in CreateUserInput) (*User, error) {
	var gh any
	if in.GitHubUsername != "" {
		gh = in.GitHubUsername
	}

	u, err := scanUser(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO users (username, counter, team, role, github_username)
			 VALUES ($1, 0, $2, $3, $4)
			 RETURNING id, username, counter, team, role, COALESCE(github_username, ''), created_at`,
			in.Username, in.Team, in.Role, gh,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

// UpdateCounter persists a new counter value for the user with the given id.
func (s *Store) UpdateCounter(ctx context.Context, id string, counter int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET counter = $1 WHERE id = $2`, counter, id)
	if err != nil {
		return fmt.Errorf("updating counter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
