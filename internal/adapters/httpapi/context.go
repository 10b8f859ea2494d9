package httpapi

import (
	"context"

	"github.com/txpress/taxi-api/internal/domain"
)

type authSessionKey struct{}

type searchSessionKey struct{}

// WithAuthSession stores the decoded auth session of the request.
func WithAuthSession(ctx context.Context, sess domain.AuthSession) context.Context {
	return context.WithValue(ctx, authSessionKey{}, sess)
}

// AuthSessionFromContext returns the request's auth session, or the zero session when none was presented.
func AuthSessionFromContext(ctx context.Context) domain.AuthSession {
	v, _ := ctx.Value(authSessionKey{}).(domain.AuthSession)
	return v
}

func WithSearchSession(ctx context.Context, sess *domain.SearchSession) context.Context {
	return context.WithValue(ctx, searchSessionKey{}, sess)
}

// SearchSessionFromContext returns nil when the client presented no valid search session.
func SearchSessionFromContext(ctx context.Context) *domain.SearchSession {
	v, _ := ctx.Value(searchSessionKey{}).(*domain.SearchSession)
	return v
}
