package agent

import (
	"context"

	"github.com/google/uuid"
)

type queryIDKey struct{}

// WithQueryID returns a context carrying id. An empty id is replaced with a new one.
func WithQueryID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = "q_" + uuid.New().String()[:22]
	}
	return context.WithValue(ctx, queryIDKey{}, id)
}

// QueryID returns the query ID stored in ctx, or "".
func QueryID(ctx context.Context) string {
	if id, ok := ctx.Value(queryIDKey{}).(string); ok {
		return id
	}
	return ""
}
