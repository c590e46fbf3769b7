package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/auth"
)

func TestJWTManagerGenerateAndVerify(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("super-secret", time.Minute)

	token, err := manager.Generate("user-123", "ana@example.com")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	session, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}

	if session.UserID != "user-123" || session.Email != "ana@example.com" {
		t.Fatalf("expected session to match, got %+v", session)
	}

	if !session.Valid() || session.ExpiresAt.Before(time.Now()) {
		t.Fatalf("expected a live session, got %+v", session)
	}
}

func TestJWTManagerGenerateRequiresUser(t *testing.T) {
	t.Parallel()

	if _, err := auth.NewJWTManager("s", time.Minute).Generate("", "x@example.com"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func sign(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestJWTManagerVerifyErrors(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", time.Minute)
	now := time.Now()

	expired := sign(t, "secret", jwt.SigningMethodHS256, auth.Claims{
		Email: "expired@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Minute)),
		},
	})

	noSubject := sign(t, "secret", jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	})

	noExpiry := sign(t, "secret", jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})

	tests := []struct {
		name    string
		manager *auth.JWTManager
		token   string
		wantErr error
	}{
		{"expired", manager, expired, domain.ErrExpiredToken},
		{"wrong secret", auth.NewJWTManager("other-secret", time.Minute), expired, domain.ErrInvalidToken},
		{"malformed", manager, "not-a-token", domain.ErrInvalidToken},
		{"missing subject", manager, noSubject, domain.ErrInvalidToken},
		{"missing expiry", manager, noExpiry, domain.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := tt.manager.Verify(tt.token); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
