package security

import (
	"context"
	"net/http"
	"strings"

	"myduid/internal/core"
)

type callerKey struct{}

// Identity reads the user id set by the upstream identity provider from
// header and stores it as the request's core.Caller. A missing header yields
// an anonymous caller; the services decide what anonymous callers may do.
func Identity(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := core.Caller{UserID: strings.TrimSpace(r.Header.Get(header))}
			next.ServeHTTP(w, r.WithContext(ContextWithCaller(r.Context(), caller)))
		})
	}
}

func ContextWithCaller(ctx context.Context, c core.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the request caller, anonymous when none was stored.
func CallerFrom(ctx context.Context) core.Caller {
	c, _ := ctx.Value(callerKey{}).(core.Caller)
	return c
}
