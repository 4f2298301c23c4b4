package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"myduid/internal/core"
)

const transactionColumns = `id, user_id, amount, description, category, type, date, created_at`

// AddTransaction records a new transaction for userID with a server generated id.
func (s *Store) AddTransaction(ctx context.Context, userID string, in core.TransactionInput) (core.Transaction, error) {
	return insertTransaction(ctx, s.db, s.now(), userID, in)
}

// ListTransactions returns userID's transactions newest first. Ties on date
// are broken by insertion order, newest first.
func (s *Store) ListTransactions(ctx context.Context, userID string, opts core.ListOptions) ([]core.Transaction, error) {
	return listTransactions(ctx, s.db, userID, opts)
}

// DeleteTransaction removes one of userID's transactions. core.ErrNotFound is
// returned when the id does not exist or belongs to another user.
func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// AddTransaction inserts a transaction inside the surrounding write transaction.
func (t *Tx) AddTransaction(ctx context.Context, userID string, in core.TransactionInput) (core.Transaction, error) {
	return insertTransaction(ctx, t.tx, t.now(), userID, in)
}

// ListTransactions reads userID's transactions inside the surrounding write transaction.
func (t *Tx) ListTransactions(ctx context.Context, userID string, opts core.ListOptions) ([]core.Transaction, error) {
	return listTransactions(ctx, t.tx, userID, opts)
}

func insertTransaction(ctx context.Context, q dbtx, now time.Time, userID string, in core.TransactionInput) (core.Transaction, error) {
	date := in.Date
	if date.IsZero() {
		date = now
	}
	tx := core.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      in.Amount,
		Description: in.Description,
		Category:    in.Category,
		Type:        in.Type,
		Date:        fromMillis(toMillis(date)),
		CreatedAt:   fromMillis(toMillis(now)),
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Amount.String(), tx.Description, tx.Category, string(tx.Type),
		toMillis(tx.Date), toMillis(tx.CreatedAt),
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return tx, nil
}

func listTransactions(ctx context.Context, q dbtx, userID string, opts core.ListOptions) ([]core.Transaction, error) {
	var (
		sb   strings.Builder
		args = []any{userID}
	)
	sb.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`)
	if opts.Range != nil {
		sb.WriteString(` AND date >= ? AND date <= ?`)
		args = append(args, toMillis(opts.Range.From), toMillis(opts.Range.To))
	}
	sb.WriteString(` ORDER BY date DESC, rowid DESC`)
	if opts.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, opts.Limit)
	}

	rows, err := q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]core.Transaction, 0)
	for rows.Next() {
		var (
			t               core.Transaction
			amount, typ     string
			date, createdAt int64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &amount, &t.Description, &t.Category, &typ, &date, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount of transaction %s: %w", t.ID, err)
		}
		t.Type = core.TransactionType(typ)
		t.Date = fromMillis(date)
		t.CreatedAt = fromMillis(createdAt)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}
