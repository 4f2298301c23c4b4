// Package services holds the caller-scoped operations behind the HTTP API,
// the worker and the admin CLI.
package services

import (
	"context"
	"errors"
	"time"

	"myduid/internal/amqp"
	"myduid/internal/cache"
	"myduid/internal/core"
	"myduid/internal/log"
	"myduid/internal/storage"
)

// EventPublisher receives committed ledger changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// Deps wires the collaborators shared by every service. Only Store is required.
type Deps struct {
	Store  *storage.Store
	Events EventPublisher
	Views  cache.Cache[core.Dashboard]
	Logger *log.Logger
	Now    func() time.Time
	// Location decides month boundaries for statistics. Defaults to UTC.
	Location *time.Location
}

func (d Deps) withDefaults(component string) Deps {
	if d.Logger == nil {
		d.Logger = log.Default(component)
	} else {
		d.Logger = d.Logger.WithComponent(component)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	return d
}

func (d Deps) clock() time.Time {
	return d.Now().In(d.Location)
}

func requireCaller(c core.Caller) error {
	if !c.Authenticated() {
		return core.ErrUnauthorized
	}
	return nil
}

// committed runs after a write has been made durable: cached views of the
// user are dropped and the event is published. Neither step can fail the write.
func (d Deps) committed(ctx context.Context, event *amqp.LedgerEvent) {
	if d.Views != nil {
		d.Views.DeletePrefix(cache.UserPrefix(event.UserID))
	}
	if d.Events == nil {
		return
	}
	if err := d.Events.PublishEvent(ctx, event); err != nil {
		d.Logger.WarnContext(ctx, "Failed to publish ledger event",
			log.FieldEventKind, event.Kind,
			log.FieldUserID, event.UserID,
			log.FieldError, err)
	}
}

// fail converts err to the domain taxonomy and logs storage failures.
// Domain errors pass through untouched.
func (d Deps) fail(ctx context.Context, op string, err error) error {
	err = core.Persistence(op, err)
	var pe *core.PersistenceError
	if errors.As(err, &pe) {
		fields := log.NewFields().
			WithOperation(op).
			WithError(pe.Err).
			WithErrorType(log.ErrorTypeDatabase)
		d.Logger.ErrorContext(ctx, "Storage operation failed", fields.ToSlice()...)
	}
	return err
}
