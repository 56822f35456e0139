package jwtverifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerify(t *testing.T) {
	ctx := context.Background()
	v, err := New("s3cret", "pill-tracker")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	token, err := v.Issue("uid-ana", "ana@example.com", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := v.Verify(ctx, token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "uid-ana" || claims.Email != "ana@example.com" {
		t.Fatalf("unexpected claims: %#v", claims)
	}
}

func TestVerify_Rejects(t *testing.T) {
	ctx := context.Background()
	v, _ := New("s3cret", "pill-tracker")

	expired, _ := v.Issue("uid-ana", "", -time.Minute)

	other, _ := New("another-secret", "pill-tracker")
	wrongKey, _ := other.Issue("uid-ana", "", time.Hour)

	otherIssuer, _ := New("s3cret", "someone-else")
	wrongIss, _ := otherIssuer.Issue("uid-ana", "", time.Hour)

	noSubject, _ := v.Issue("", "", time.Hour)

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "uid-ana",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{
		"expired":    expired,
		"wrong key":  wrongKey,
		"wrong iss":  wrongIss,
		"no subject": noSubject,
		"alg none":   none,
		"garbage":    "not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Verify(ctx, tok); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNew_RequiresSecret(t *testing.T) {
	if _, err := New(" ", ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
