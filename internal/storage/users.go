package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"myduid/internal/core"
)

// CreateUser inserts a registered user. core.ErrEmailTaken is returned when
// the email is already in use.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (core.User, error) {
	u := core.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    fromMillis(toMillis(s.now())),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, toMillis(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// EmailExists reports whether a user with email is registered.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE email = ?`, email).Scan(&n); err != nil {
		return false, fmt.Errorf("lookup user email: %w", err)
	}
	return n > 0, nil
}

// GetUserByEmail returns the user registered with email or core.ErrNotFound.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	var (
		u         core.User
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &createdAt)
	if err != nil {
		return core.User{}, notFoundIfNoRows(fmt.Errorf("get user by email: %w", err))
	}
	u.CreatedAt = fromMillis(createdAt)
	return u, nil
}

// ListLedgerOwners returns every user id that owns at least one transaction or goal.
// Ledger rows may belong to identities that never registered locally.
func (s *Store) ListLedgerOwners(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM transactions UNION SELECT user_id FROM goals ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("query ledger owners: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan ledger owner: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger owners: %w", err)
	}
	return ids, nil
}
