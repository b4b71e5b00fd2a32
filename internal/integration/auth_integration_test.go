package integration

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/repository"
	"indicafacil_backend/internal/service"
)

func TestAuth_SignupWithReferralCode(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()
	t.Setenv("JWT_SECRET", "integration-secret")
	service.InitJWT()

	referrer := newAccount(t, db)

	auth := service.NewAuthService(db)
	email := fmt.Sprintf("signup-%d@example.com", time.Now().UnixNano())
	account, token, err := auth.Signup(ctx, "Maria", email, "password123", referrer.ReferralCode)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if token == "" {
		t.Error("expected a session token")
	}
	if account.ReferredBy == nil || *account.ReferredBy != referrer.ID {
		t.Errorf("referred_by = %v, want %d", account.ReferredBy, referrer.ID)
	}

	link, err := repository.NewReferralRepository(db).GetByReferredID(ctx, account.ID)
	if err != nil {
		t.Fatalf("load link: %v", err)
	}
	if link == nil || link.Status != domain.ReferralStatusPending {
		t.Errorf("link = %+v, want pending link to referrer", link)
	}

	// duplicate email is refused
	if _, _, err := auth.Signup(ctx, "Maria", email, "password123", ""); !errors.Is(err, service.ErrEmailTaken) {
		t.Errorf("duplicate signup err = %v, want ErrEmailTaken", err)
	}
}

func TestAuth_LoginVerifiesPassword(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()
	t.Setenv("JWT_SECRET", "integration-secret")
	service.InitJWT()

	auth := service.NewAuthService(db)
	email := fmt.Sprintf("login-%d@example.com", time.Now().UnixNano())
	if _, _, err := auth.Signup(ctx, "João", email, "password123", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}

	account, token, err := auth.Login(ctx, email, "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || account.Email != email {
		t.Errorf("login returned account %q token len %d", account.Email, len(token))
	}

	if _, _, err := auth.Login(ctx, email, "wrong-password"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := auth.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}
