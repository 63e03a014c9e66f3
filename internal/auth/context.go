package auth

import (
	"context"

	"tempiaops/internal/domain"
)

type sessionKey struct{}

func WithSession(ctx context.Context, s *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns nil when the request was not authenticated.
func SessionFrom(ctx context.Context) *domain.Session {
	s, _ := ctx.Value(sessionKey{}).(*domain.Session)
	return s
}
