package auth

import (
	"testing"
	"time"
)

const testSecret = "my_test_jwt_secret"

func TestGenerateAndParseJWT(t *testing.T) {
	sessionID := "0b6f3c1e-5d2a-4f7e-9c1b-2a3d4e5f6a7b"

	tokenString, err := GenerateJWT(testSecret, sessionID, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate JWT: %v", err)
	}
	if tokenString == "" {
		t.Fatalf("empty token string")
	}

	claims, err := ParseJWT(testSecret, tokenString)
	if err != nil {
		t.Fatalf("failed to parse JWT: %v", err)
	}
	if claims.SessionID != sessionID {
		t.Errorf("expected sid=%s, got %s", sessionID, claims.SessionID)
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(time.Now()) {
		t.Errorf("token should not be expired, got expiresAt=%v", claims.ExpiresAt)
	}
}

func TestParseJWT_InvalidToken(t *testing.T) {
	_, err := ParseJWT(testSecret, "this.is.not.a.valid.jwt")
	if err == nil {
		t.Errorf("expected error for invalid JWT, got nil")
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	tokenString, err := GenerateJWT(testSecret, "sid", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate JWT: %v", err)
	}
	if _, err = ParseJWT("totally_wrong_secret", tokenString); err == nil {
		t.Errorf("expected error for wrong secret, got nil")
	}
}

func TestParseJWT_Expired(t *testing.T) {
	tokenString, _ := GenerateJWT(testSecret, "sid", -time.Minute)
	if _, err := ParseJWT(testSecret, tokenString); err == nil {
		t.Errorf("expected error for expired token")
	}
}

func TestParseJWT_MissingSessionID(t *testing.T) {
	tokenString, _ := GenerateJWT(testSecret, "", time.Hour)
	if _, err := ParseJWT(testSecret, tokenString); err == nil {
		t.Errorf("expected error for token without sid")
	}
}
