package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	sferrors "github.com/storefront-labs/storefront/internal/errors"
	"github.com/storefront-labs/storefront/internal/storage"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

// TestInspect verifies claims extraction from JWT and opaque tokens.
func TestInspect(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	tests := []struct {
		name       string
		token      string
		customerID string
		jwt        bool
	}{
		{"customerId claim", signed(t, jwt.MapClaims{"customerId": 7, "exp": exp.Unix()}), "7", true},
		{"id claim", signed(t, jwt.MapClaims{"id": "abc"}), "abc", true},
		{"sub fallback", signed(t, jwt.MapClaims{"sub": "42"}), "42", true},
		{"opaque", "not-a-jwt", "", false},
		{"garbage with dots", "a.b.c", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Inspect(tt.token)
			if c.CustomerID != tt.customerID || c.JWT != tt.jwt {
				t.Errorf("Inspect() = %+v, want customer %q jwt %v", c, tt.customerID, tt.jwt)
			}
		})
	}

	c := Inspect(signed(t, jwt.MapClaims{"customerId": 7, "exp": exp.Unix()}))
	if !c.ExpiresAt.Equal(exp) {
		t.Errorf("expected expiry %s, got %s", exp, c.ExpiresAt)
	}
}

// TestSession_TokenPriority verifies flag > config > store.
func TestSession_TokenPriority(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	_ = store.Set(ctx, storage.KeyToken, []byte("stored"))

	tests := []struct {
		flag, config string
		want         string
		source       Source
	}{
		{"flag", "config", "flag", SourceFlag},
		{"", "config", "config", SourceConfig},
		{"", "", "stored", SourceStore},
	}

	for _, tt := range tests {
		token, source, err := NewSession(store, tt.flag, tt.config).Token(ctx)
		if err != nil {
			t.Fatalf("token failed: %v", err)
		}
		if token != tt.want || source != tt.source {
			t.Errorf("expected %s from %s, got %s from %s", tt.want, tt.source, token, source)
		}
	}
}

// TestSession_RequireToken verifies missing and expired tokens are rejected.
//
// Red-Flag: AuthRequired for no token and for an expired token.
func TestSession_RequireToken(t *testing.T) {
	ctx := context.Background()

	_, _, err := NewSession(storage.NewMemoryStore(), "", "").RequireToken(ctx)
	var authErr *sferrors.ErrAuthRequired
	if !errors.As(err, &authErr) {
		t.Errorf("expected ErrAuthRequired without token, got %v", err)
	}

	expired := signed(t, jwt.MapClaims{"customerId": 1, "exp": time.Now().Add(-time.Minute).Unix()})
	_, _, err = NewSession(storage.NewMemoryStore(), expired, "").RequireToken(ctx)
	if !errors.As(err, &authErr) || authErr.Message != "authentication expired" {
		t.Errorf("expected expired ErrAuthRequired, got %v", err)
	}
}

// TestSession_SaveClear verifies login and logout round trip.
func TestSession_SaveClear(t *testing.T) {
	ctx := context.Background()
	s := NewSession(storage.NewMemoryStore(), "", "")

	if err := s.Save(ctx, "opaque-token"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	token, _, err := s.RequireToken(ctx)
	if err != nil || token != "opaque-token" {
		t.Fatalf("expected opaque-token, got %q (%v)", token, err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if token, _, _ := s.Token(ctx); token != "" {
		t.Errorf("expected no token after clear, got %q", token)
	}
}

// TestSession_CustomerID verifies claim first, then fallback.
func TestSession_CustomerID(t *testing.T) {
	ctx := context.Background()

	withClaim := NewSession(storage.NewMemoryStore(), signed(t, jwt.MapClaims{"customer_id": "9"}), "")
	if id, err := withClaim.CustomerID(ctx, "fallback"); err != nil || id != "9" {
		t.Errorf("expected 9, got %q (%v)", id, err)
	}

	opaque := NewSession(storage.NewMemoryStore(), "opaque", "")
	if id, err := opaque.CustomerID(ctx, "fallback"); err != nil || id != "fallback" {
		t.Errorf("expected fallback, got %q (%v)", id, err)
	}

	var invalid *sferrors.ErrInvalidInput
	if _, err := opaque.CustomerID(ctx, ""); !errors.As(err, &invalid) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
