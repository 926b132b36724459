// Package actor identifies who performs a stock mutation. Every movement, alert
// resolution and purchase order carries the actor's name.
package actor

import (
	"context"
)

const systemID = "00000000-0000-0000-0000-000000000000"

// Actor represents the user or process performing an action.
type Actor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// Name is the value recorded in audit columns.
func (a *Actor) Name() string {
	if a == nil || a.Username == "" {
		return "system"
	}
	return a.Username
}

// String returns a string representation of the actor for logging
func (a *Actor) String() string {
	return a.Name()
}

// IsSystem returns true if the actor represents the system.
func (a *Actor) IsSystem() bool {
	return a == nil || a.ID == systemID
}

type contextKey string

const actorContextKey contextKey = "actor"

// FromContext retrieves the Actor from the context.
// Returns nil if no actor is present (e.g., system operations).
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	a, ok := ctx.Value(actorContextKey).(*Actor)
	if !ok {
		return nil
	}
	return a
}

// NameFromContext returns the audit name of the actor in ctx, or "system".
func NameFromContext(ctx context.Context) string {
	return FromContext(ctx).Name()
}

// WithActor returns a new context with the Actor attached.
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, a)
}

// SystemActor returns the Actor used by background jobs such as the alert scheduler.
func SystemActor() *Actor {
	return &Actor{
		ID:       systemID,
		Username: "system",
		Role:     "system",
	}
}
