package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateJWT(t *testing.T) {
	secret := []byte("test-secret")
	signed, err := GenerateJWT("user-1", "admin", secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (any, error) { return secret, nil }); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims["user_id"] != "user-1" || claims["role"] != "admin" {
		t.Fatalf("claims = %v", claims)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil || time.Until(exp.Time) > time.Hour || time.Until(exp.Time) < 59*time.Minute {
		t.Fatalf("exp = %v (%v)", exp, err)
	}
}

func TestGenerateJWT_Rejects(t *testing.T) {
	if _, err := GenerateJWT("", "", []byte("s"), time.Hour); err == nil {
		t.Fatal("expected error for empty user id")
	}
	if _, err := GenerateJWT("u", "", nil, time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
