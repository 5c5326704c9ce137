// Package auth resolves the bearer token for the current invocation and reads
// the claims the storefront API puts in it.
//
// Tokens are not verified here; the API is the only party that can do that.
// The client only needs the customer id and expiry to address its own orders
// and to fail early on a token that can no longer work.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	sferrors "github.com/storefront-labs/storefront/internal/errors"
	"github.com/storefront-labs/storefront/internal/storage"
)

// Source says where a token came from.
type Source string

const (
	SourceNone   Source = ""
	SourceFlag   Source = "flag"
	SourceConfig Source = "config"
	SourceStore  Source = "session"
)

// customerClaimKeys are checked in order for the customer id.
var customerClaimKeys = []string{"customerId", "customer_id", "CustomerID", "id", "sub"}

// Claims are the parts of a token the client cares about.
type Claims struct {
	// CustomerID addresses the customer's orders.
	CustomerID string `json:"customer_id,omitempty"`

	// Email is informational.
	Email string `json:"email,omitempty"`

	// ExpiresAt is zero when the token carries no expiry.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// JWT is false for opaque tokens.
	JWT bool `json:"jwt"`
}

// IsExpired checks if the token has expired.
func (c Claims) IsExpired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return now.After(c.ExpiresAt)
}

// Inspect decodes token claims without verifying the signature. Opaque tokens
// return empty claims.
func Inspect(token string) Claims {
	if strings.Count(token, ".") != 2 {
		return Claims{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Claims{}
	}

	out := Claims{JWT: true}
	for _, key := range customerClaimKeys {
		if id := claimString(claims[key]); id != "" {
			out.CustomerID = id
			break
		}
	}
	out.Email = claimString(claims["email"])
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out
}

func claimString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	case int, int64:
		return fmt.Sprintf("%d", t)
	default:
		return ""
	}
}

// Session resolves the token with priority flag, then config, then the
// session store.
type Session struct {
	store       storage.SessionStore
	flagToken   string
	configToken string
	now         func() time.Time
}

// NewSession creates a Session. flagToken and configToken may be empty.
func NewSession(store storage.SessionStore, flagToken, configToken string) *Session {
	return &Session{
		store:       store,
		flagToken:   flagToken,
		configToken: configToken,
		now:         time.Now,
	}
}

// Token returns the active token and its source. An empty token with no
// error means the user is not logged in.
func (s *Session) Token(ctx context.Context) (string, Source, error) {
	if s.flagToken != "" {
		return s.flagToken, SourceFlag, nil
	}
	if s.configToken != "" {
		return s.configToken, SourceConfig, nil
	}
	data, err := s.store.Get(ctx, storage.KeyToken)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return "", SourceNone, nil
	}
	if err != nil {
		return "", SourceNone, err
	}
	return strings.TrimSpace(string(data)), SourceStore, nil
}

// RequireToken returns the active token, failing with ErrAuthRequired when
// there is none or it has expired.
func (s *Session) RequireToken(ctx context.Context) (string, Claims, error) {
	token, _, err := s.Token(ctx)
	if err != nil {
		return "", Claims{}, err
	}
	if token == "" {
		return "", Claims{}, sferrors.NewAuthRequired("not logged in")
	}
	claims := Inspect(token)
	if claims.IsExpired(s.now()) {
		return "", Claims{}, sferrors.NewAuthExpired()
	}
	return token, claims, nil
}

// Save stores token in the session store.
func (s *Session) Save(ctx context.Context, token string) error {
	if token == "" {
		return sferrors.NewInvalidInput("token", "cannot be empty")
	}
	return s.store.Set(ctx, storage.KeyToken, []byte(token))
}

// Clear removes the stored token. Flag and config tokens are unaffected.
func (s *Session) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, storage.KeyToken)
}

// CustomerID returns the customer id from the token claims, falling back to
// the configured id.
func (s *Session) CustomerID(ctx context.Context, fallback string) (string, error) {
	_, claims, err := s.RequireToken(ctx)
	if err != nil {
		return "", err
	}
	if claims.CustomerID != "" {
		return claims.CustomerID, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", sferrors.NewInvalidInput("customer_id", "token carries no customer id; set customer_id in the config or STOREFRONT_CUSTOMER_ID")
}
