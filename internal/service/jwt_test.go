package service

import (
	"testing"

	"indicafacil_backend/internal/domain"
)

func TestJWTRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	token, err := GenerateJWT(42, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	accountID, role, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if accountID != 42 {
		t.Errorf("account id = %d, want 42", accountID)
	}
	if role != domain.RoleAdmin {
		t.Errorf("role = %q, want %q", role, domain.RoleAdmin)
	}
}

func TestParseJWTRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	if _, _, err := ParseJWT("not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
	if _, _, err := ParseJWT(""); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-one")
	InitJWT()
	token, err := GenerateJWT(7, domain.RoleUser)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	t.Setenv("JWT_SECRET", "secret-two")
	InitJWT()
	if _, _, err := ParseJWT(token); err == nil {
		t.Error("token signed with a different secret should not parse")
	}
}
