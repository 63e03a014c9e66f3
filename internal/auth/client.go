package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"tempiaops/internal/apperror"
)

// TokenResponse is what the identity provider returns on password sign-in.
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	RefreshToken string       `json:"refresh_token"`
	User         IdentityUser `json:"user"`
}

type IdentityUser struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	AppMetadata AppMetadata `json:"app_metadata"`
}

type identityError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
	Msg         string `json:"msg"`
}

func (e *identityError) message() string {
	switch {
	case e.Description != "":
		return e.Description
	case e.Msg != "":
		return e.Msg
	default:
		return e.Error
	}
}

// IdentityClient talks to the external GoTrue-style identity provider.
type IdentityClient struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewIdentityClient(baseURL, anonKey string, logger *zap.Logger) *IdentityClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if anonKey != "" {
		client.SetHeader("apikey", anonKey)
	}

	return &IdentityClient{http: client, logger: logger}
}

func (c *IdentityClient) SignIn(ctx context.Context, email, password string) (*TokenResponse, error) {
	if email == "" || password == "" {
		return nil, apperror.New(apperror.CodeInvalid, "email and password are required")
	}

	var result TokenResponse
	var failure identityError
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&result).
		SetError(&failure).
		Post("/token")
	if err != nil {
		c.logger.Error("identity provider sign-in failed", zap.Error(err))
		return nil, apperror.Wrap(err, apperror.CodeUnavailable, "identity provider unavailable")
	}

	switch {
	case resp.IsSuccess():
		return &result, nil
	case resp.StatusCode() == http.StatusBadRequest, resp.StatusCode() == http.StatusUnauthorized:
		return nil, apperror.New(apperror.CodeUnauthorized, failure.message())
	default:
		c.logger.Error("identity provider rejected sign-in",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", failure.message()),
		)
		return nil, apperror.New(apperror.CodeUnavailable, fmt.Sprintf("identity provider returned %d", resp.StatusCode()))
	}
}

// SignOut revokes the session behind token.
func (c *IdentityClient) SignOut(ctx context.Context, token string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Post("/logout")
	if err != nil {
		c.logger.Error("identity provider sign-out failed", zap.Error(err))
		return apperror.Wrap(err, apperror.CodeUnavailable, "identity provider unavailable")
	}
	if resp.IsError() && resp.StatusCode() != http.StatusUnauthorized {
		return apperror.New(apperror.CodeUnavailable, fmt.Sprintf("identity provider returned %d", resp.StatusCode()))
	}
	return nil
}
