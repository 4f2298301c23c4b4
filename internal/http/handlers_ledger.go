package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"myduid/internal/core"
	"myduid/internal/validation"
)

func (a *api) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	ve := core.NewValidationError()
	opts := core.ListOptions{
		Limit: parseLimit(q, a.defaultLimit, ve),
		Range: parseDateRange(q, ve),
	}
	if err := ve.OrNil(); err != nil {
		ValidationErrorResponse(err).Write(w)
		return
	}

	txs, err := a.svc.Ledger.ListTransactions(r.Context(), caller, opts)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	OK(txs).Write(w)
}

func (a *api) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	raw, ok := a.body(w, r)
	if !ok {
		return
	}
	in, ve := validation.Transaction(raw, a.now())
	if ve != nil {
		ValidationErrorResponse(ve).Write(w)
		return
	}

	tx, err := a.svc.Ledger.AddTransaction(r.Context(), caller, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	Created(tx).Write(w)
}

func (a *api) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	if err := a.svc.Ledger.DeleteTransaction(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	OK(nil).Write(w)
}

func (a *api) handleBalance(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	bal, err := a.svc.Ledger.Balance(r.Context(), caller)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	OK(bal).Write(w)
}

func (a *api) handleMonthlyStats(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	ve := core.NewValidationError()
	months := parseMonths(r.URL.Query(), ve)
	if err := ve.OrNil(); err != nil {
		ValidationErrorResponse(err).Write(w)
		return
	}
	buckets, err := a.svc.Ledger.MonthlyStats(r.Context(), caller, months)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	OK(buckets).Write(w)
}

func (a *api) handleFinancialStats(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	fs, err := a.svc.Ledger.FinancialStats(r.Context(), caller)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	OK(fs).Write(w)
}

func (a *api) handleDashboard(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	d, err := a.svc.Ledger.Dashboard(r.Context(), caller)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	OK(d).Write(w)
}
