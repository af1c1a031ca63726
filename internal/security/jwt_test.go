package security

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, errGen := GenerateToken(testSecret, 42, "a@example.com", "MANAGER", time.Hour)
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}

	claims, errParse := ParseToken(testSecret, token)
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if claims.UserID != 42 || claims.Email != "a@example.com" || claims.Role != "MANAGER" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, errGen := GenerateToken(testSecret, 1, "a@example.com", "VIEWER", time.Hour)
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}

	if _, errParse := ParseToken("other-secret", token); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", errParse)
	}
}

func TestParseTokenReportsExpiry(t *testing.T) {
	token, errGen := GenerateToken(testSecret, 1, "a@example.com", "VIEWER", -time.Minute)
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}

	if _, errParse := ParseToken(testSecret, token); !errors.Is(errParse, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", errParse)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, errHash := HashPassword("hunter22")
	if errHash != nil {
		t.Fatalf("hash: %v", errHash)
	}
	if !CheckPassword(hash, "hunter22") {
		t.Fatal("expected matching password to verify")
	}
	if CheckPassword(hash, "hunter23") {
		t.Fatal("expected mismatched password to fail")
	}
}

func TestHashPasswordAppliesWorkFactor(t *testing.T) {
	hash, errHash := HashPassword("hunter22")
	if errHash != nil {
		t.Fatalf("hash: %v", errHash)
	}

	cost, errCost := bcrypt.Cost([]byte(hash))
	if errCost != nil {
		t.Fatalf("cost: %v", errCost)
	}
	if cost != passwordCost {
		t.Fatalf("expected cost %d, got %d", passwordCost, cost)
	}
}
