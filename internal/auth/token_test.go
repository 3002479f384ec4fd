package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager("test-secret", "banking-service-test", time.Hour)

	token, err := manager.Generate("user-123", "08012345678", RoleUser)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Subject != "user-123" || claims.Phone != "08012345678" || claims.Role != RoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenRejections(t *testing.T) {
	manager := NewTokenManager("test-secret", "banking-service-test", time.Hour)

	tests := []struct {
		name  string
		token func() string
	}{
		{
			name: "garbage token",
			token: func() string {
				return "not.a.token"
			},
		},
		{
			name: "wrong secret",
			token: func() string {
				other := NewTokenManager("different-secret", "banking-service-test", time.Hour)
				tok, _ := other.Generate("user-123", "0801", RoleUser)
				return tok
			},
		},
		{
			name: "wrong issuer",
			token: func() string {
				other := NewTokenManager("test-secret", "someone-else", time.Hour)
				tok, _ := other.Generate("user-123", "0801", RoleUser)
				return tok
			},
		},
		{
			name: "expired token",
			token: func() string {
				other := NewTokenManager("test-secret", "banking-service-test", -time.Minute)
				tok, _ := other.Generate("user-123", "0801", RoleUser)
				return tok
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.Verify(tt.token()); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestAdminTokenCarriesNoPhone(t *testing.T) {
	manager := NewTokenManager("test-secret", "banking-service-test", time.Hour)

	token, err := manager.Generate("admin-1", "", RoleAdmin)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Phone != "" || claims.Role != RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}
