package core

import "github.com/shopspring/decimal"

// Balance is the signed sum of a set of transactions.
type Balance struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// MonthBucket aggregates one calendar month.
type MonthBucket struct {
	Label   string          `json:"name"`
	Year    int             `json:"year"`
	Month   int             `json:"month"` // 1-12
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// StatValue pairs a figure with its percentage change against the previous month.
type StatValue struct {
	Value  decimal.Decimal `json:"value"`
	Change float64         `json:"change"`
}

type FinancialStats struct {
	Balance StatValue `json:"balance"`
	Income  StatValue `json:"income"`
	Expense StatValue `json:"expense"`
}

// Dashboard is everything the overview page needs in one payload.
type Dashboard struct {
	Balance   Balance        `json:"balance"`
	Financial FinancialStats `json:"financial"`
	Monthly   []MonthBucket  `json:"monthly"`
	Recent    []Transaction  `json:"recent"`
}
