package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"myduid/internal/core"
	"myduid/internal/validation"
)

// goalView adds the read-time progress figures to a goal.
type goalView struct {
	core.Goal
	Progress  float64         `json:"progress"`
	Remaining decimal.Decimal `json:"remaining"`
	Completed bool            `json:"completed"`
}

func newGoalView(g core.Goal) goalView {
	return goalView{
		Goal:      g,
		Progress:  g.Progress(),
		Remaining: g.Remaining(),
		Completed: g.Completed(),
	}
}

func (a *api) handleListGoals(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	goals, err := a.svc.Goals.ListGoals(r.Context(), caller)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	views := make([]goalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, newGoalView(g))
	}
	OK(views).Write(w)
}

func (a *api) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	raw, ok := a.body(w, r)
	if !ok {
		return
	}
	in, ve := validation.Goal(raw)
	if ve != nil {
		ValidationErrorResponse(ve).Write(w)
		return
	}
	g, err := a.svc.Goals.CreateGoal(r.Context(), caller, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	Created(newGoalView(g)).Write(w)
}

func (a *api) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	if err := a.svc.Goals.DeleteGoal(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	OK(nil).Write(w)
}

func (a *api) handleDeposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	raw, ok := a.body(w, r)
	if !ok {
		return
	}
	amount, ve := validation.Deposit(raw)
	if ve != nil {
		ValidationErrorResponse(ve).Write(w)
		return
	}
	res, err := a.svc.Goals.Deposit(r.Context(), caller, chi.URLParam(r, "id"), amount)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	OK(struct {
		Goal        goalView         `json:"goal"`
		Transaction core.Transaction `json:"transaction"`
	}{newGoalView(res.Goal), res.Transaction}).Write(w)
}
