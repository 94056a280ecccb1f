package utils

import (
	"strings"
	"testing"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	token, err := GenerateJWT("admin@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Email != "admin@example.com" {
		t.Fatalf("claims.Email = %q", claims.Email)
	}
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret-a")
	token, err := GenerateJWT("admin@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Setenv("JWT_SECRET_KEY", "secret-b")
	if _, err := ValidateJWT(token); err == nil {
		t.Fatal("expected validation to fail with a different secret")
	}
}

func TestValidateJWT_Garbage(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	if _, err := ValidateJWT(strings.Repeat("x", 40)); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestIsValidChartKind(t *testing.T) {
	for _, kind := range []string{"distribution", "stylist_rate", "coupon_rate", "funnel"} {
		if !IsValidChartKind(kind) {
			t.Errorf("IsValidChartKind(%q) = false", kind)
		}
	}
	for _, kind := range []string{"", "pie", "Distribution", "stylist"} {
		if IsValidChartKind(kind) {
			t.Errorf("IsValidChartKind(%q) = true", kind)
		}
	}
}
