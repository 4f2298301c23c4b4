package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidAmount       = errors.New("invalid amount")
)

// ValidationError carries per-field messages in the order the checks ran.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records msg against field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Has reports whether any message was recorded for field.
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// OrNil returns nil when nothing was recorded, so callers can return it directly.
func (e *ValidationError) OrNil() *ValidationError {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// PersistenceError wraps a storage failure. Op names the user-facing action,
// for example "create transaction"; the cause is for logs only.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Message is the client-safe text for the failure.
func (e *PersistenceError) Message() string {
	return "Failed to " + e.Op
}

// Persistence wraps err unless it already belongs to the domain taxonomy.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var pe *PersistenceError
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrEmailTaken),
		errors.As(err, &ve),
		errors.As(err, &pe):
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
