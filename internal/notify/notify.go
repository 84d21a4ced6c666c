package notify

import (
	"context"

	"events-portal/internal/models"
)

// Notifier surfaces transient messages to whoever is looking at the view.
type Notifier interface {
	Notify(ctx context.Context, toast models.Toast)
}

// Store keeps toasts per session until the next page drains them.
type Store interface {
	Push(ctx context.Context, sessionID string, toast models.Toast) error
	Drain(ctx context.Context, sessionID string) ([]models.Toast, error)
}

type sessionKey struct{}

// WithSession attaches the view session id that toasts should be delivered to.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

func SessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, toast models.Toast)

func (f Func) Notify(ctx context.Context, toast models.Toast) {
	f(ctx, toast)
}

// Discard drops every toast.
var Discard Notifier = Func(func(context.Context, models.Toast) {})
