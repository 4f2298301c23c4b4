package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"myduid/internal/core"
	"myduid/internal/log"
	"myduid/internal/middleware/security"
	"myduid/internal/services"
	"myduid/internal/validation"
)

// Pinger reports whether the database answers. *storage.Store implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the operations the API exposes.
type Services struct {
	Ledger *services.LedgerService
	Goals  *services.GoalService
	Users  *services.UserService
	Export *services.ExportService
	Health Pinger
}

type api struct {
	svc          Services
	defaultLimit int
	now          func() time.Time
}

// caller returns the authenticated caller or writes a 401.
func (a *api) caller(w http.ResponseWriter, r *http.Request) (core.Caller, bool) {
	c := security.CallerFrom(r.Context())
	if !c.Authenticated() {
		ErrorFor(core.ErrUnauthorized).Write(w)
		return core.Caller{}, false
	}
	return c, true
}

// body decodes the JSON object or writes a 400.
func (a *api) body(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	raw, err := decodeBody(w, r)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Invalid request body", log.FieldError, err)
		ErrorResponse(http.StatusBadRequest, MsgInvalidBody).Write(w)
		return nil, false
	}
	return raw, true
}

func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	var pe *core.PersistenceError
	if !errors.As(err, &pe) && !isDomainError(err) {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Unexpected handler error",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeOf(err))
	}
	ErrorFor(err).Write(w)
}

func isDomainError(err error) bool {
	var ve *core.ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, core.ErrUnauthorized) ||
		errors.Is(err, core.ErrNotFound) ||
		errors.Is(err, core.ErrInsufficientBalance) ||
		errors.Is(err, core.ErrEmailTaken)
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(map[string]string{"status": "ok"}).Write(w)
}

func (a *api) handleReady(w http.ResponseWriter, r *http.Request) {
	if a.svc.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.svc.Health.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "Database unavailable").Write(w)
			return
		}
	}
	OK(map[string]string{"status": "ready"}).Write(w)
}

func (a *api) handleRegister(w http.ResponseWriter, r *http.Request) {
	raw, ok := a.body(w, r)
	if !ok {
		return
	}
	in, ve := validation.Registration(raw)
	if ve != nil {
		ValidationErrorResponse(ve).Write(w)
		return
	}
	user, err := a.svc.Users.Register(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	Created(user).Write(w)
}
