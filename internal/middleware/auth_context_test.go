package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pill-tracker/internal/ports/auth"
)

type stubVerifier struct{}

func (stubVerifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if token != "good" {
		return auth.Claims{}, errors.New("bad token")
	}
	return auth.Claims{UserID: "uid-1", Email: "a@b.c"}, nil
}

func claimsFor(t *testing.T, verifier auth.AuthVerifier, headers map[string]string) (auth.Claims, bool) {
	t.Helper()

	var (
		got auth.Claims
		ok  bool
	)
	h := AuthContext(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = GetClaims(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got, ok
}

func TestAuthContext_DevHeaders(t *testing.T) {
	c, ok := claimsFor(t, nil, map[string]string{DebugUserHeader: "u1", DebugEmailHeader: "u1@x.io"})
	if !ok || c.UserID != "u1" || c.Email != "u1@x.io" {
		t.Fatalf("unexpected claims: %#v ok=%v", c, ok)
	}

	if _, ok := claimsFor(t, nil, nil); ok {
		t.Fatalf("no header must mean no claims")
	}
}

func TestAuthContext_Verifier(t *testing.T) {
	c, ok := claimsFor(t, stubVerifier{}, map[string]string{"Authorization": "Bearer good"})
	if !ok || c.UserID != "uid-1" {
		t.Fatalf("expected claims from verifier, got %#v", c)
	}

	if _, ok := claimsFor(t, stubVerifier{}, map[string]string{"Authorization": "Bearer nope"}); ok {
		t.Fatalf("invalid token must not set claims")
	}

	// Con verifier, el header de debug se ignora.
	if _, ok := claimsFor(t, stubVerifier{}, map[string]string{DebugUserHeader: "u1"}); ok {
		t.Fatalf("debug header must be ignored when a verifier is configured")
	}
}
