package idp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pill-tracker/internal/platform/httpclient"
	"pill-tracker/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("identity provider client not configured")
	ErrUnauthorized  = errors.New("identity provider unauthorized")
	ErrUpstream      = errors.New("identity provider upstream error")
	ErrTokenEmpty    = errors.New("token is empty")
)

const (
	verifyPath       = "/v1/tokens/verify"
	emailPath        = "/v1/users/%s/email"
	verificationPath = "/v1/users/%s/verification-email"
)

// Config del cliente del identity provider.
type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: header para la API key. Default "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

// Client habla con la API administrativa del identity provider: verificación
// de tokens y cambios de email. Implementa auth.AuthVerifier e identity.Directory.
type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

// Verify valida un ID token y devuelve uid + email.
func (c *Client) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	var out struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
	}
	err := c.http.DoJSON(ctx, http.MethodPost, verifyPath, c.headers(), map[string]string{"token": token}, &out)
	if err != nil {
		return auth.Claims{}, mapError(err)
	}

	out.UserID = strings.TrimSpace(out.UserID)
	if out.UserID == "" {
		return auth.Claims{}, fmt.Errorf("%w: response missing user_id", ErrUpstream)
	}
	return auth.Claims{
		UserID: out.UserID,
		Email:  strings.TrimSpace(out.Email),
	}, nil
}

func (c *Client) UpdateEmail(ctx context.Context, userID, email string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	path := fmt.Sprintf(emailPath, url.PathEscape(userID))
	err := c.http.DoJSON(ctx, http.MethodPost, path, c.headers(), map[string]string{"email": email}, nil)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (c *Client) SendEmailVerification(ctx context.Context, userID string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	path := fmt.Sprintf(verificationPath, url.PathEscape(userID))
	if err := c.http.DoJSON(ctx, http.MethodPost, path, c.headers(), nil, nil); err != nil {
		return mapError(err)
	}
	return nil
}

func (c *Client) headers() map[string]string {
	return map[string]string{c.apiKeyHeader: c.apiKey}
}

func mapError(err error) error {
	var he *httpclient.HTTPError
	if errors.As(err, &he) {
		switch he.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrUnauthorized
		default:
			return fmt.Errorf("%w: status=%d", ErrUpstream, he.StatusCode)
		}
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}
