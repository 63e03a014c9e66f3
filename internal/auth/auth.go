package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"tempiaops/internal/apperror"
	"tempiaops/internal/domain"
)

// Claims is the subset of the identity provider's access token we rely on.
type Claims struct {
	Email       string      `json:"email"`
	AppMetadata AppMetadata `json:"app_metadata"`
	jwt.RegisteredClaims
}

type AppMetadata struct {
	Role string `json:"role,omitempty"`
}

// Verifier checks HS256 access tokens issued by the identity provider and
// turns them into sessions.
type Verifier struct {
	secret      []byte
	defaultRole domain.Role
}

// NewVerifier falls back to viewer when defaultRole is not a known role.
func NewVerifier(secret string, defaultRole string) *Verifier {
	role := domain.Role(defaultRole)
	if !role.Valid() {
		role = domain.RoleViewer
	}
	return &Verifier{secret: []byte(secret), defaultRole: role}
}

// ResolveRole maps a role claim onto a known role. Absent or unknown claims
// get the default role.
func (v *Verifier) ResolveRole(claim string) domain.Role {
	role := domain.Role(strings.ToLower(strings.TrimSpace(claim)))
	if role.Valid() {
		return role
	}
	return v.defaultRole
}

func (v *Verifier) Verify(token string) (*domain.Session, error) {
	if token == "" {
		return nil, apperror.New(apperror.CodeUnauthorized, "missing access token")
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.Wrap(err, apperror.CodeUnauthorized, "access token expired")
		}
		return nil, apperror.Wrap(err, apperror.CodeUnauthorized, "invalid access token")
	}

	if claims.Subject == "" {
		return nil, apperror.New(apperror.CodeUnauthorized, "access token has no subject")
	}

	return &domain.Session{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   v.ResolveRole(claims.AppMetadata.Role),
		Token:  token,
	}, nil
}

// VerifyRequest reads the bearer token from the Authorization header.
func (v *Verifier) VerifyRequest(r *http.Request) (*domain.Session, error) {
	return v.Verify(BearerToken(r))
}

func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("Bearer "):])
}
