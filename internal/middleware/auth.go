package middleware

import (
	"net/http"

	"tempiaops/internal/auth"
	"tempiaops/internal/domain"
	"tempiaops/internal/respond"
)

// SessionVerifier turns a request's bearer token into a session.
type SessionVerifier interface {
	VerifyRequest(r *http.Request) (*domain.Session, error)
}

// Authenticate rejects requests without a valid access token and stores the
// resolved session in the request context.
func Authenticate(v SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := v.VerifyRequest(r)
			if err != nil {
				respond.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
		})
	}
}
