package services

import (
	"context"

	"github.com/shopspring/decimal"

	"myduid/internal/amqp"
	"myduid/internal/core"
	"myduid/internal/log"
	"myduid/internal/stats"
	"myduid/internal/storage"
	"myduid/internal/validation"
)

// GoalService manages savings goals. Goal amounts only grow through Deposit.
type GoalService struct {
	deps Deps
	sl   *log.StructuredLogger
}

func NewGoalService(deps Deps) *GoalService {
	deps = deps.withDefaults(log.ComponentGoals)
	return &GoalService{deps: deps, sl: log.NewStructuredLogger(deps.Logger)}
}

func (s *GoalService) CreateGoal(ctx context.Context, caller core.Caller, in core.GoalInput) (core.Goal, error) {
	if err := requireCaller(caller); err != nil {
		return core.Goal{}, err
	}
	if in.CurrentAmount.IsNegative() {
		ve := core.NewValidationError()
		ve.Add("currentAmount", validation.MsgCurrentMin)
		return core.Goal{}, ve
	}

	g, err := s.deps.Store.CreateGoal(ctx, caller.UserID, in)
	if err != nil {
		return core.Goal{}, s.deps.fail(ctx, "create goal", err)
	}

	s.deps.Logger.InfoContext(ctx, "Goal created", log.FieldUserID, caller.UserID, log.FieldGoalID, g.ID)
	s.deps.committed(ctx, amqp.NewLedgerEvent(amqp.GoalCreated, caller.UserID, g.ID).WithAmount(g.TargetAmount))
	return g, nil
}

// ListGoals returns the caller's goals, most recently created first.
func (s *GoalService) ListGoals(ctx context.Context, caller core.Caller) ([]core.Goal, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	goals, err := s.deps.Store.ListGoals(ctx, caller.UserID)
	if err != nil {
		return nil, s.deps.fail(ctx, "fetch goals", err)
	}
	return goals, nil
}

func (s *GoalService) DeleteGoal(ctx context.Context, caller core.Caller, id string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if err := s.deps.Store.DeleteGoal(ctx, caller.UserID, id); err != nil {
		return s.deps.fail(ctx, "delete goal", err)
	}

	s.deps.Logger.InfoContext(ctx, "Goal deleted", log.FieldUserID, caller.UserID, log.FieldGoalID, id)
	s.deps.committed(ctx, amqp.NewLedgerEvent(amqp.GoalDeleted, caller.UserID, id))
	return nil
}

// Deposit moves amount from the caller's available balance into a goal.
//
// The balance read, the goal increment and the savings expense happen in one
// write transaction, so concurrent deposits cannot both spend the same
// balance. The balance is checked before the goal is looked up: a caller with
// too little money gets ErrInsufficientBalance even for an unknown goal.
func (s *GoalService) Deposit(ctx context.Context, caller core.Caller, goalID string, amount decimal.Decimal) (core.DepositResult, error) {
	if err := requireCaller(caller); err != nil {
		return core.DepositResult{}, err
	}
	if verr := validation.PositiveAmount(amount); verr != nil {
		return core.DepositResult{}, verr
	}

	var res core.DepositResult
	err := s.deps.Store.InTx(ctx, func(tx *storage.Tx) error {
		txs, err := tx.ListTransactions(ctx, caller.UserID, core.ListOptions{})
		if err != nil {
			return err
		}
		if stats.ComputeBalance(txs).Balance.LessThan(amount) {
			return core.ErrInsufficientBalance
		}

		goal, err := tx.IncrementGoal(ctx, caller.UserID, goalID, amount)
		if err != nil {
			return err
		}

		entry, err := tx.AddTransaction(ctx, caller.UserID, core.TransactionInput{
			Amount:      amount,
			Description: core.SavingsDescription(goal.Name),
			Category:    core.SavingsCategory,
			Type:        core.Expense,
			Date:        s.deps.clock(),
		})
		if err != nil {
			return err
		}

		res = core.DepositResult{Goal: goal, Transaction: entry}
		return nil
	})
	if err != nil {
		return core.DepositResult{}, s.deps.fail(ctx, "update goal", err)
	}

	s.sl.LogDeposit(ctx, caller.UserID, res)
	s.deps.committed(ctx, amqp.NewLedgerEvent(amqp.GoalDeposited, caller.UserID, goalID).WithAmount(amount))
	return res, nil
}
