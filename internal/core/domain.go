package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

// SavingsCategory is the category recorded for ledger entries created by a goal deposit.
const SavingsCategory = "Savings"

type (
	TransactionType string

	// Caller identifies the authenticated user on whose behalf an operation runs.
	// It is supplied by the upstream identity provider and threaded explicitly.
	Caller struct {
		UserID string
	}

	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"userId"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Type        TransactionType `json:"type"`
		Date        time.Time       `json:"date"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	Goal struct {
		ID            string          `json:"id"`
		UserID        string          `json:"userId"`
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
		Deadline      *time.Time      `json:"deadline,omitempty"`
		CreatedAt     time.Time       `json:"createdAt"`
	}

	// TransactionInput is a validated request to record a transaction.
	TransactionInput struct {
		Amount      decimal.Decimal
		Description string
		Category    string
		Type        TransactionType
		Date        time.Time
	}

	GoalInput struct {
		Name          string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		Deadline      *time.Time
	}

	RegistrationInput struct {
		Name     string
		Email    string
		Password string
	}

	// DateRange bounds a query on transaction dates. Both ends are inclusive.
	DateRange struct {
		From time.Time
		To   time.Time
	}

	ListOptions struct {
		Limit int
		Range *DateRange
	}

	DepositResult struct {
		Goal        Goal        `json:"goal"`
		Transaction Transaction `json:"transaction"`
	}
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

// ParseTransactionType accepts the canonical upper-case names only.
func ParseTransactionType(s string) (TransactionType, bool) {
	t := TransactionType(strings.TrimSpace(s))
	return t, t.Valid()
}

// Authenticated reports whether the caller carries a user identity.
func (c Caller) Authenticated() bool {
	return strings.TrimSpace(c.UserID) != ""
}

// Completed is derived at read time; goals may be funded past their target.
func (g Goal) Completed() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// Progress returns the funded percentage, capped at 100 for display.
func (g Goal) Progress() float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	pct := g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).InexactFloat64()
	if pct > 100 {
		return 100
	}
	return pct
}

// Remaining is the amount still needed to reach the target, never negative.
func (g Goal) Remaining() decimal.Decimal {
	rem := g.TargetAmount.Sub(g.CurrentAmount)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// Contains reports whether t falls inside the inclusive range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// HalfOpen reports whether t falls in [From, To).
func (r DateRange) HalfOpen(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

// SavingsDescription is the ledger description recorded for a deposit into the named goal.
func SavingsDescription(goalName string) string {
	return "Savings for " + goalName
}
