package handler

import (
	"context"
	"net/http"

	"tempiaops/internal/auth"
	"tempiaops/internal/domain"
	"tempiaops/internal/respond"
)

type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*auth.TokenResponse, error)
	SignOut(ctx context.Context, token string) error
}

type TokenVerifier interface {
	Verify(token string) (*domain.Session, error)
}

type AuthHandler struct {
	identity IdentityProvider
	verifier TokenVerifier
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	ExpiresIn    int             `json:"expires_in"`
	Session      *domain.Session `json:"session"`
}

func NewAuthHandler(identity IdentityProvider, verifier TokenVerifier) *AuthHandler {
	return &AuthHandler{identity: identity, verifier: verifier}
}

// Login signs in with the identity provider and resolves the session the
// issued token grants.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	tokens, err := h.identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	session, err := h.verifier.Verify(tokens.AccessToken)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, loginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		Session:      session,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.SignOut(r.Context(), sessionOf(r).Token); err != nil {
		respond.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, sessionOf(r))
}
