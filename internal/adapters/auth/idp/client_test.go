package idp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newFakeIDP(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()

	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		calls = append(calls, r.Method+" "+r.URL.Path)

		switch r.URL.Path {
		case verifyPath:
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["token"] != "good-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"user_id":"uid-ana","email":"ana@example.com"}`))
		case "/v1/users/uid-ana/email":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["email"] == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		case "/v1/users/uid-ana/verification-email":
			w.WriteHeader(http.StatusAccepted)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_Verify(t *testing.T) {
	srv, _ := newFakeIDP(t)
	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	claims, err := c.Verify(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "uid-ana" || claims.Email != "ana@example.com" {
		t.Fatalf("unexpected claims: %#v", claims)
	}

	if _, err := c.Verify(context.Background(), "bad"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := c.Verify(context.Background(), " "); !errors.Is(err, ErrTokenEmpty) {
		t.Fatalf("expected ErrTokenEmpty, got %v", err)
	}
}

func TestDirectory(t *testing.T) {
	srv, calls := newFakeIDP(t)
	c, _ := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"})
	ctx := context.Background()

	if err := c.UpdateEmail(ctx, "uid-ana", "new@example.com"); err != nil {
		t.Fatalf("UpdateEmail: %v", err)
	}
	if err := c.SendEmailVerification(ctx, "uid-ana"); err != nil {
		t.Fatalf("SendEmailVerification: %v", err)
	}
	if len(*calls) != 2 {
		t.Fatalf("expected 2 calls, got %#v", *calls)
	}

	if err := c.SendEmailVerification(ctx, "uid-other"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestClient_NotConfigured(t *testing.T) {
	c, _ := NewClient(Config{})
	if c.IsConfigured() {
		t.Fatalf("empty config must not be configured")
	}
	if err := c.UpdateEmail(context.Background(), "u", "e@x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	wrongKey, _ := NewClient(Config{BaseURL: "http://127.0.0.1:1", APIKey: "k"})
	if !wrongKey.IsConfigured() {
		t.Fatalf("expected configured client")
	}
}
