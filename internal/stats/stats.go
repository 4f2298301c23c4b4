// Package stats derives balances and monthly figures from ledger rows.
// All functions are pure; callers fetch the rows and pick the reference time.
package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"myduid/internal/core"
)

// DefaultMonthCount is the number of buckets returned by ComputeMonthlyStats
// when no explicit count is requested.
const DefaultMonthCount = 6

// ComputeBalance sums income and expense over txs. The result does not
// depend on the order of txs.
func ComputeBalance(txs []core.Transaction) core.Balance {
	income, expense := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			income = income.Add(tx.Amount)
		case core.Expense:
			expense = expense.Add(tx.Amount)
		}
	}
	return core.Balance{
		Income:  income,
		Expense: expense,
		Balance: income.Sub(expense),
	}
}

// MonthStart returns midnight on the first day of t's month in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// AddMonths moves a month start by n calendar months.
func AddMonths(monthStart time.Time, n int) time.Time {
	return time.Date(monthStart.Year(), monthStart.Month()+time.Month(n), 1, 0, 0, 0, 0, monthStart.Location())
}

// MonthlyWindow is the half-open range covered by monthCount buckets ending at ref's month.
func MonthlyWindow(ref time.Time, monthCount int) core.DateRange {
	if monthCount <= 0 {
		monthCount = DefaultMonthCount
	}
	cur := MonthStart(ref)
	return core.DateRange{From: AddMonths(cur, -(monthCount - 1)), To: AddMonths(cur, 1)}
}

// FinancialWindow spans the previous and current month of ref as [prevStart, nextStart).
func FinancialWindow(ref time.Time) core.DateRange {
	cur := MonthStart(ref)
	return core.DateRange{From: AddMonths(cur, -1), To: AddMonths(cur, 1)}
}

// ComputeMonthlyStats buckets txs into monthCount calendar months ending at
// ref's month, oldest first. Rows outside the window are ignored.
func ComputeMonthlyStats(txs []core.Transaction, ref time.Time, monthCount int) []core.MonthBucket {
	if monthCount <= 0 {
		monthCount = DefaultMonthCount
	}
	loc := ref.Location()
	window := MonthlyWindow(ref, monthCount)

	buckets := make([]core.MonthBucket, monthCount)
	for i := range buckets {
		start := AddMonths(window.From, i)
		buckets[i] = core.MonthBucket{
			Label:   start.Month().String()[:3],
			Year:    start.Year(),
			Month:   int(start.Month()),
			Income:  decimal.Zero,
			Expense: decimal.Zero,
		}
	}

	for _, tx := range txs {
		d := tx.Date.In(loc)
		if !window.HalfOpen(d) {
			continue
		}
		idx := (d.Year()-window.From.Year())*12 + int(d.Month()) - int(window.From.Month())
		if idx < 0 || idx >= monthCount {
			continue
		}
		switch tx.Type {
		case core.Income:
			buckets[idx].Income = buckets[idx].Income.Add(tx.Amount)
		case core.Expense:
			buckets[idx].Expense = buckets[idx].Expense.Add(tx.Amount)
		}
	}
	return buckets
}

// ComputeFinancialStats compares ref's month against the month before.
// windowed holds the rows of FinancialWindow(ref); allTime holds every row
// and only feeds the headline balance.
func ComputeFinancialStats(windowed, allTime []core.Transaction, ref time.Time) core.FinancialStats {
	loc := ref.Location()
	cur := MonthStart(ref)
	current := core.DateRange{From: cur, To: AddMonths(cur, 1)}
	previous := core.DateRange{From: AddMonths(cur, -1), To: cur}

	var curTxs, prevTxs []core.Transaction
	for _, tx := range windowed {
		d := tx.Date.In(loc)
		switch {
		case current.HalfOpen(d):
			curTxs = append(curTxs, tx)
		case previous.HalfOpen(d):
			prevTxs = append(prevTxs, tx)
		}
	}

	c := ComputeBalance(curTxs)
	p := ComputeBalance(prevTxs)
	total := ComputeBalance(allTime)

	return core.FinancialStats{
		Balance: core.StatValue{
			Value:  total.Balance,
			Change: PctChange(c.Balance.InexactFloat64(), p.Balance.InexactFloat64()),
		},
		Income: core.StatValue{
			Value:  c.Income,
			Change: PctChange(c.Income.InexactFloat64(), p.Income.InexactFloat64()),
		},
		Expense: core.StatValue{
			Value:  c.Expense,
			Change: PctChange(c.Expense.InexactFloat64(), p.Expense.InexactFloat64()),
		},
	}
}

// PctChange returns the percentage change from prev to curr. A zero
// baseline yields 100 when curr is positive and 0 otherwise.
func PctChange(curr, prev float64) float64 {
	if prev == 0 {
		if curr > 0 {
			return 100
		}
		return 0
	}
	return (curr - prev) / prev * 100
}
