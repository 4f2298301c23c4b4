package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"myduid/internal/core"
)

const goalColumns = `id, user_id, name, target_amount, current_amount, deadline, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateGoal stores a new savings goal for userID.
func (s *Store) CreateGoal(ctx context.Context, userID string, in core.GoalInput) (core.Goal, error) {
	now := fromMillis(toMillis(s.now()))
	g := core.Goal{
		ID:            uuid.NewString(),
		UserID:        userID,
		Name:          in.Name,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		CreatedAt:     now,
	}
	if in.Deadline != nil {
		d := fromMillis(toMillis(*in.Deadline))
		g.Deadline = &d
	}

	var deadline sql.NullInt64
	if g.Deadline != nil {
		deadline = sql.NullInt64{Int64: toMillis(*g.Deadline), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), deadline, toMillis(g.CreatedAt),
	)
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	return g, nil
}

// ListGoals returns userID's goals, most recently created first.
func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	goals := make([]core.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}

// GetGoal returns one of userID's goals or core.ErrNotFound.
func (s *Store) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	return getGoal(ctx, s.db, userID, id)
}

// DeleteGoal removes one of userID's goals. core.ErrNotFound is returned when
// the id does not exist or belongs to another user.
func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// GetGoal reads a goal inside the surrounding write transaction.
func (t *Tx) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	return getGoal(ctx, t.tx, userID, id)
}

// IncrementGoal adds amount to the goal's current amount and returns the
// updated goal. It is only reachable through Store.InTx.
func (t *Tx) IncrementGoal(ctx context.Context, userID, id string, amount decimal.Decimal) (core.Goal, error) {
	g, err := getGoal(ctx, t.tx, userID, id)
	if err != nil {
		return core.Goal{}, err
	}
	g.CurrentAmount = g.CurrentAmount.Add(amount)

	res, err := t.tx.ExecContext(ctx,
		`UPDATE goals SET current_amount = ? WHERE id = ? AND user_id = ?`,
		g.CurrentAmount.String(), id, userID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal amount: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return core.Goal{}, fmt.Errorf("update goal amount: %w", err)
	} else if n == 0 {
		return core.Goal{}, core.ErrNotFound
	}
	return g, nil
}

func getGoal(ctx context.Context, q dbtx, userID, id string) (core.Goal, error) {
	row := q.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row)
	if err != nil {
		return core.Goal{}, notFoundIfNoRows(err)
	}
	return g, nil
}

func scanGoal(r rowScanner) (core.Goal, error) {
	var (
		g               core.Goal
		target, current string
		deadline        sql.NullInt64
		createdAt       int64
	)
	if err := r.Scan(&g.ID, &g.UserID, &g.Name, &target, &current, &deadline, &createdAt); err != nil {
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}
	var err error
	if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return core.Goal{}, fmt.Errorf("parse target of goal %s: %w", g.ID, err)
	}
	if g.CurrentAmount, err = decimal.NewFromString(current); err != nil {
		return core.Goal{}, fmt.Errorf("parse current amount of goal %s: %w", g.ID, err)
	}
	if deadline.Valid {
		d := fromMillis(deadline.Int64)
		g.Deadline = &d
	}
	g.CreatedAt = fromMillis(createdAt)
	return g, nil
}
