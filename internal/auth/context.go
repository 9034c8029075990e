package auth

import (
	"context"

	"taskmanager/models"
)

type contextKey struct{}

// WithUser returns a copy of ctx carrying the resolved user
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the user stored by the auth middleware, if any
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*models.User)
	return user, ok && user != nil
}
