// Package requestid propagates the per-request correlation id.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the wire name, honored inbound and echoed outbound.
const Header = "X-Request-ID"

type ctxKey struct{}

func New() string { return uuid.NewString() }

func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From returns the id from ctx, or "" when none was set.
func From(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
