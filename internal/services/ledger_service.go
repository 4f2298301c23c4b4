package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"myduid/internal/amqp"
	"myduid/internal/cache"
	"myduid/internal/core"
	"myduid/internal/log"
	"myduid/internal/stats"
	"myduid/internal/validation"
)

// DashboardRecentLimit is the number of recent transactions on the dashboard.
const DashboardRecentLimit = 10

// LedgerService records transactions and derives statistics from them.
type LedgerService struct {
	deps Deps
	sl   *log.StructuredLogger
}

func NewLedgerService(deps Deps) *LedgerService {
	deps = deps.withDefaults(log.ComponentLedger)
	return &LedgerService{deps: deps, sl: log.NewStructuredLogger(deps.Logger)}
}

// AddTransaction records in for the caller. A zero date is stamped with the current time.
func (s *LedgerService) AddTransaction(ctx context.Context, caller core.Caller, in core.TransactionInput) (core.Transaction, error) {
	if err := requireCaller(caller); err != nil {
		return core.Transaction{}, err
	}
	if verr := validation.PositiveAmount(in.Amount); verr != nil {
		return core.Transaction{}, verr
	}
	if !in.Type.Valid() {
		ve := core.NewValidationError()
		ve.Add("type", validation.MsgInvalidType)
		return core.Transaction{}, ve
	}
	if in.Date.IsZero() {
		in.Date = s.deps.clock()
	}

	tx, err := s.deps.Store.AddTransaction(ctx, caller.UserID, in)
	if err != nil {
		return core.Transaction{}, s.deps.fail(ctx, "create transaction", err)
	}

	s.sl.LogTransactionCreated(ctx, caller.UserID, tx)
	s.deps.committed(ctx, amqp.NewLedgerEvent(amqp.TransactionCreated, caller.UserID, tx.ID).WithAmount(tx.Amount))
	return tx, nil
}

// ListTransactions returns the caller's transactions newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, caller core.Caller, opts core.ListOptions) ([]core.Transaction, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	txs, err := s.deps.Store.ListTransactions(ctx, caller.UserID, opts)
	if err != nil {
		return nil, s.deps.fail(ctx, "fetch transactions", err)
	}
	return txs, nil
}

// DeleteTransaction removes one of the caller's transactions.
func (s *LedgerService) DeleteTransaction(ctx context.Context, caller core.Caller, id string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if err := s.deps.Store.DeleteTransaction(ctx, caller.UserID, id); err != nil {
		return s.deps.fail(ctx, "delete transaction", err)
	}

	s.deps.Logger.InfoContext(ctx, "Transaction deleted", log.FieldUserID, caller.UserID, log.FieldTransactionID, id)
	s.deps.committed(ctx, amqp.NewLedgerEvent(amqp.TransactionDeleted, caller.UserID, id))
	return nil
}

// Balance is re-derived from every transaction of the caller.
func (s *LedgerService) Balance(ctx context.Context, caller core.Caller) (core.Balance, error) {
	if err := requireCaller(caller); err != nil {
		return core.Balance{}, err
	}
	txs, err := s.deps.Store.ListTransactions(ctx, caller.UserID, core.ListOptions{})
	if err != nil {
		return core.Balance{}, s.deps.fail(ctx, "fetch balance", err)
	}
	return stats.ComputeBalance(txs), nil
}

// MonthlyStats buckets the caller's last months calendar months. months <= 0 means six.
func (s *LedgerService) MonthlyStats(ctx context.Context, caller core.Caller, months int) ([]core.MonthBucket, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	ref := s.deps.clock()
	window := stats.MonthlyWindow(ref, months)
	txs, err := s.deps.Store.ListTransactions(ctx, caller.UserID, core.ListOptions{Range: &window})
	if err != nil {
		return nil, s.deps.fail(ctx, "fetch monthly stats", err)
	}
	return stats.ComputeMonthlyStats(txs, ref, months), nil
}

// FinancialStats compares the current month with the previous one. The
// windowed and all-time reads run concurrently.
func (s *LedgerService) FinancialStats(ctx context.Context, caller core.Caller) (core.FinancialStats, error) {
	if err := requireCaller(caller); err != nil {
		return core.FinancialStats{}, err
	}
	ref := s.deps.clock()
	window := stats.FinancialWindow(ref)

	var windowed, allTime []core.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		windowed, err = s.deps.Store.ListTransactions(gctx, caller.UserID, core.ListOptions{Range: &window})
		return err
	})
	g.Go(func() error {
		var err error
		allTime, err = s.deps.Store.ListTransactions(gctx, caller.UserID, core.ListOptions{})
		return err
	})
	if err := g.Wait(); err != nil {
		return core.FinancialStats{}, s.deps.fail(ctx, "fetch financial stats", err)
	}
	return stats.ComputeFinancialStats(windowed, allTime, ref), nil
}

// Dashboard assembles the overview in one read and caches it per user until
// the next write by that user or the cache TTL.
func (s *LedgerService) Dashboard(ctx context.Context, caller core.Caller) (core.Dashboard, error) {
	if err := requireCaller(caller); err != nil {
		return core.Dashboard{}, err
	}
	key := cache.UserKey(caller.UserID, "dashboard")
	if s.deps.Views != nil {
		if d, ok := s.deps.Views.Get(key); ok {
			return d, nil
		}
	}

	txs, err := s.deps.Store.ListTransactions(ctx, caller.UserID, core.ListOptions{})
	if err != nil {
		return core.Dashboard{}, s.deps.fail(ctx, "fetch dashboard", err)
	}

	ref := s.deps.clock()
	recent := txs
	if len(recent) > DashboardRecentLimit {
		recent = recent[:DashboardRecentLimit]
	}
	d := core.Dashboard{
		Balance:   stats.ComputeBalance(txs),
		Financial: stats.ComputeFinancialStats(txs, txs, ref),
		Monthly:   stats.ComputeMonthlyStats(txs, ref, stats.DefaultMonthCount),
		Recent:    recent,
	}

	if s.deps.Views != nil {
		s.deps.Views.Set(key, d)
	}
	return d, nil
}
