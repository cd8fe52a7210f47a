package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/erazemk/vitrina/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, 1, "Admin", model.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != 1 {
		t.Errorf("expected user_id 1, got %d", claims.UserID)
	}
	if claims.Username != "Admin" {
		t.Errorf("expected username 'Admin', got %q", claims.Username)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("expected role 'admin', got %q", claims.Role)
	}
}

func TestTokensHaveDistinctIDs(t *testing.T) {
	secret := "test"
	a, _ := GenerateToken(secret, 2, "editor", model.RoleEditor)
	b, _ := GenerateToken(secret, 2, "editor", model.RoleEditor)

	ca, err := ValidateToken(secret, a)
	if err != nil {
		t.Fatal(err)
	}
	cb, err := ValidateToken(secret, b)
	if err != nil {
		t.Fatal(err)
	}
	if ca.ID == "" || ca.ID == cb.ID {
		t.Errorf("expected distinct non-empty JTIs, got %q and %q", ca.ID, cb.ID)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", 1, "Admin", model.RoleAdmin)

	_, err := ValidateToken("secret2", token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestTokenExpiry(t *testing.T) {
	secret := "test"
	token, _ := GenerateToken(secret, 1, "test", model.RoleEditor)
	claims, _ := ValidateToken(secret, token)

	diff := time.Now().Add(TokenExpiry).Sub(claims.Expiry())
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}
