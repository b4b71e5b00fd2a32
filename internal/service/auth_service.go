package service

import (
	"context"
	"errors"
	"strings"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/logger"
	"indicafacil_backend/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// AuthService handles registration and login
type AuthService struct {
	accountRepo  *repository.AccountRepository
	referralRepo *repository.ReferralRepository
	audit        *AuditService
}

func NewAuthService(db *pgxpool.Pool) *AuthService {
	return &AuthService{
		accountRepo:  repository.NewAccountRepository(db),
		referralRepo: repository.NewReferralRepository(db),
		audit:        NewAuditService(db),
	}
}

// Signup registers a new account. When referralCode resolves to an
// existing account, a pending referral link is created; an unknown code
// is ignored rather than rejected so a mistyped link still converts.
func (s *AuthService) Signup(ctx context.Context, name, email, password, referralCode string) (*domain.Account, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	taken, err := s.accountRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if taken {
		return nil, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	var referrer *domain.Account
	if referralCode != "" {
		referrer, err = s.accountRepo.GetByReferralCode(ctx, strings.TrimSpace(referralCode))
		if err != nil {
			return nil, "", err
		}
		if referrer == nil {
			logger.Warn("signup with unknown referral code", "code", referralCode)
		}
	}

	account := &domain.Account{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}
	if referrer != nil {
		account.ReferredBy = &referrer.ID
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, "", err
	}

	if referrer != nil {
		if err := s.referralRepo.CreateLink(ctx, referrer.ID, account.ID); err != nil {
			// The account exists either way; the link can be recreated by
			// support if this ever fires.
			logger.Error("failed to create referral link",
				"referrer_id", referrer.ID, "referred_id", account.ID, "error", err)
		}
	}

	token, err := GenerateJWT(account.ID, account.Role)
	if err != nil {
		return nil, "", err
	}

	logger.Info("account created", "account_id", account.ID, "referred", referrer != nil)
	s.audit.LogSignup(ctx, account.ID, referralCode, "", "")

	return account, token, nil
}

// Login authenticates by email and password, returning a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Account, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if account == nil {
		// Burn a hash comparison anyway so the two failure paths take
		// similar time.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := GenerateJWT(account.ID, account.Role)
	if err != nil {
		return nil, "", err
	}

	return account, token, nil
}
