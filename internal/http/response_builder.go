// Package http serves the ledger API.
//
// Every response is JSON: {"success": true, "data": ...} on success,
// {"error": "message"} on failure and {"error": {"field": ["msg"]}} when
// validation fails.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"myduid/internal/core"
)

const (
	MsgUnauthorized        = "Unauthorized"
	MsgNotFound            = "Not found"
	MsgInsufficientBalance = "Insufficient balance"
	MsgEmailTaken          = "Email already registered"
	MsgInvalidBody         = "Invalid request body"
	MsgRateLimited         = "Rate limit exceeded. Please try again later."
	MsgInternal            = "Internal server error"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type errorEnvelope struct {
	Error any `json:"error"`
}

// ResponseBuilder assembles one JSON response.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewResponse starts a 200 response with no body.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Success wraps data in the success envelope. nil data is omitted.
func (b *ResponseBuilder) Success(data any) *ResponseBuilder {
	b.body = successEnvelope{Success: true, Data: data}
	return b
}

// Message sets a plain error message.
func (b *ResponseBuilder) Message(msg string) *ResponseBuilder {
	b.body = errorEnvelope{Error: msg}
	return b
}

// Fields sets per-field validation messages.
func (b *ResponseBuilder) Fields(fields map[string][]string) *ResponseBuilder {
	b.body = errorEnvelope{Error: fields}
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// OK is a 200 success response.
func OK(data any) *ResponseBuilder {
	return NewResponse().Success(data)
}

// Created is a 201 success response.
func Created(data any) *ResponseBuilder {
	return NewResponse().Status(http.StatusCreated).Success(data)
}

// ErrorResponse is an error response with a plain message.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).Message(message)
}

// ValidationErrorResponse is a 422 carrying field messages.
func ValidationErrorResponse(ve *core.ValidationError) *ResponseBuilder {
	return NewResponse().Status(http.StatusUnprocessableEntity).Fields(ve.Fields)
}

// ErrorFor maps a service error to its response. Storage causes never
// reach the client.
func ErrorFor(err error) *ResponseBuilder {
	var ve *core.ValidationError
	var pe *core.PersistenceError
	switch {
	case errors.As(err, &ve):
		return ValidationErrorResponse(ve)
	case errors.Is(err, core.ErrUnauthorized):
		return ErrorResponse(http.StatusUnauthorized, MsgUnauthorized)
	case errors.Is(err, core.ErrNotFound):
		return ErrorResponse(http.StatusNotFound, MsgNotFound)
	case errors.Is(err, core.ErrInsufficientBalance):
		return ErrorResponse(http.StatusConflict, MsgInsufficientBalance)
	case errors.Is(err, core.ErrEmailTaken):
		return ErrorResponse(http.StatusConflict, MsgEmailTaken)
	case errors.As(err, &pe):
		return ErrorResponse(http.StatusInternalServerError, pe.Message())
	default:
		return ErrorResponse(http.StatusInternalServerError, MsgInternal)
	}
}
