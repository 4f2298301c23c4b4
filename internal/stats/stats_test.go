package stats

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"myduid/internal/core"
)

func tx(typ core.TransactionType, amount string, date time.Time) core.Transaction {
	return core.Transaction{Type: typ, Amount: decimal.RequireFromString(amount), Date: date}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestComputeBalance(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Income, "1000", day(2025, 1, 1)),
		tx(core.Expense, "250.25", day(2025, 1, 2)),
		tx(core.Expense, "0.10", day(2025, 1, 3)),
		tx(core.Income, "0.20", day(2025, 1, 4)),
	}
	b := ComputeBalance(txs)
	if !b.Income.Equal(decimal.RequireFromString("1000.20")) {
		t.Errorf("income = %s", b.Income)
	}
	if !b.Expense.Equal(decimal.RequireFromString("250.35")) {
		t.Errorf("expense = %s", b.Expense)
	}
	if !b.Balance.Equal(decimal.RequireFromString("749.85")) {
		t.Errorf("balance = %s", b.Balance)
	}

	if got := ComputeBalance(nil); !got.Balance.IsZero() {
		t.Errorf("empty balance = %s, want 0", got.Balance)
	}
}

func TestComputeBalanceOrderInvariant(t *testing.T) {
	var txs []core.Transaction
	for i := 1; i <= 40; i++ {
		typ := core.Income
		if i%3 == 0 {
			typ = core.Expense
		}
		txs = append(txs, tx(typ, decimal.NewFromInt(int64(i)).Div(decimal.NewFromInt(7)).StringFixed(2), day(2025, 1, 1)))
	}
	want := ComputeBalance(txs).Balance

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		rng.Shuffle(len(txs), func(a, b int) { txs[a], txs[b] = txs[b], txs[a] })
		if got := ComputeBalance(txs).Balance; !got.Equal(want) {
			t.Fatalf("permutation %d: balance %s, want %s", i, got, want)
		}
	}
}

func TestPctChange(t *testing.T) {
	cases := []struct {
		curr, prev, want float64
	}{
		{0, 0, 0},
		{50, 0, 100},
		{-50, 0, 0},
		{150, 100, 50},
		{50, 100, -50},
		{100, 100, 0},
		{-50, -100, -50},
	}
	for _, c := range cases {
		if got := PctChange(c.curr, c.prev); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("PctChange(%v, %v) = %v, want %v", c.curr, c.prev, got, c.want)
		}
	}
}

func TestComputeMonthlyStatsWindow(t *testing.T) {
	ref := day(2025, 6, 20)
	txs := []core.Transaction{
		tx(core.Income, "100", day(2025, 6, 1)),
		tx(core.Expense, "40", day(2025, 6, 30)),
		tx(core.Income, "10", day(2025, 1, 1)),
		tx(core.Expense, "5", day(2025, 3, 15)),
		tx(core.Income, "999", day(2024, 12, 31)), // M-6
		tx(core.Income, "999", day(2025, 7, 1)),   // after ref month
	}

	buckets := ComputeMonthlyStats(txs, ref, 0)
	if len(buckets) != DefaultMonthCount {
		t.Fatalf("expected %d buckets, got %d", DefaultMonthCount, len(buckets))
	}

	labels := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}
	for i, b := range buckets {
		if b.Label != labels[i] {
			t.Errorf("bucket %d label %q, want %q", i, b.Label, labels[i])
		}
		if b.Month != i+1 || b.Year != 2025 {
			t.Errorf("bucket %d = %d-%d", i, b.Year, b.Month)
		}
	}

	if !buckets[0].Income.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Jan income = %s, want 10", buckets[0].Income)
	}
	if !buckets[2].Expense.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Mar expense = %s, want 5", buckets[2].Expense)
	}
	if !buckets[5].Income.Equal(decimal.NewFromInt(100)) || !buckets[5].Expense.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Jun = %s/%s, want 100/40", buckets[5].Income, buckets[5].Expense)
	}

	var total decimal.Decimal
	for _, b := range buckets {
		total = total.Add(b.Income)
	}
	if !total.Equal(decimal.NewFromInt(110)) {
		t.Errorf("out-of-window rows leaked into buckets: income total %s", total)
	}
}

func TestComputeMonthlyStatsYearBoundary(t *testing.T) {
	buckets := ComputeMonthlyStats(nil, day(2025, 2, 10), 4)
	want := []struct {
		year  int
		month int
		label string
	}{{2024, 11, "Nov"}, {2024, 12, "Dec"}, {2025, 1, "Jan"}, {2025, 2, "Feb"}}
	if len(buckets) != len(want) {
		t.Fatalf("got %d buckets", len(buckets))
	}
	for i, w := range want {
		b := buckets[i]
		if b.Year != w.year || b.Month != w.month || b.Label != w.label {
			t.Errorf("bucket %d = %+v, want %+v", i, b, w)
		}
		if !b.Income.IsZero() || !b.Expense.IsZero() {
			t.Errorf("bucket %d should be empty", i)
		}
	}
}

func TestComputeMonthlyStatsUsesReferenceLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ref := time.Date(2025, 6, 10, 0, 0, 0, 0, loc)
	// 23:30 UTC on May 31 is already June 1 in UTC+2.
	txs := []core.Transaction{tx(core.Income, "7", time.Date(2025, 5, 31, 23, 30, 0, 0, time.UTC))}

	buckets := ComputeMonthlyStats(txs, ref, 2)
	if !buckets[1].Income.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected row in June bucket, got %+v", buckets)
	}
}

func TestComputeFinancialStats(t *testing.T) {
	ref := day(2025, 6, 15)
	windowed := []core.Transaction{
		tx(core.Income, "200", day(2025, 5, 3)),
		tx(core.Expense, "100", day(2025, 5, 4)),
		tx(core.Income, "300", day(2025, 6, 2)),
		tx(core.Expense, "50", day(2025, 6, 3)),
	}
	allTime := append([]core.Transaction{tx(core.Income, "1000", day(2024, 1, 1))}, windowed...)

	fs := ComputeFinancialStats(windowed, allTime, ref)

	if !fs.Balance.Value.Equal(decimal.NewFromInt(1350)) {
		t.Errorf("balance value = %s, want 1350", fs.Balance.Value)
	}
	// current month balance 250 vs previous 100
	if fs.Balance.Change != 150 {
		t.Errorf("balance change = %v, want 150", fs.Balance.Change)
	}
	if !fs.Income.Value.Equal(decimal.NewFromInt(300)) || fs.Income.Change != 50 {
		t.Errorf("income = %+v", fs.Income)
	}
	if !fs.Expense.Value.Equal(decimal.NewFromInt(50)) || fs.Expense.Change != -50 {
		t.Errorf("expense = %+v", fs.Expense)
	}
}

func TestComputeFinancialStatsEmptyPrevious(t *testing.T) {
	ref := day(2025, 1, 10)
	windowed := []core.Transaction{tx(core.Income, "10", day(2025, 1, 2))}
	fs := ComputeFinancialStats(windowed, windowed, ref)
	if fs.Income.Change != 100 || fs.Expense.Change != 0 || fs.Balance.Change != 100 {
		t.Errorf("unexpected changes %+v", fs)
	}
}

func TestFinancialWindow(t *testing.T) {
	w := FinancialWindow(time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC))
	if !w.From.Equal(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v", w.From)
	}
	if !w.To.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("to = %v", w.To)
	}
}
