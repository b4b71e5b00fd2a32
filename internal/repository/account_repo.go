package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"indicafacil_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// GenerateReferralCode generates a unique referral code
func GenerateReferralCode() string {
	bytes := make([]byte, 6)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// Create inserts a new account; the referral code is retried on collision.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	var err error
	for i := 0; i < 5; i++ {
		code := GenerateReferralCode()
		err = r.db.QueryRow(ctx, `
			INSERT INTO accounts (name, email, password_hash, role, credits, balance, referral_code, referred_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, referral_code, created_at
		`, a.Name, a.Email, a.PasswordHash, a.Role, a.Credits, a.Balance, code, a.ReferredBy).
			Scan(&a.ID, &a.ReferralCode, &a.CreatedAt)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err, "accounts_referral_code_key") {
			return err
		}
	}
	return err
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, credits, balance, referral_code, referred_by, created_at
		FROM accounts
		WHERE id = $1
	`, id)
	return scanAccount(row)
}

// GetByEmail retrieves an account by email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, credits, balance, referral_code, referred_by, created_at
		FROM accounts
		WHERE email = $1
	`, email)
	return scanAccount(row)
}

// GetByReferralCode resolves a referral code to its owner
func (r *AccountRepository) GetByReferralCode(ctx context.Context, code string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, credits, balance, referral_code, referred_by, created_at
		FROM accounts
		WHERE referral_code = $1
	`, code)
	return scanAccount(row)
}

// EmailExists checks if an email is already registered
func (r *AccountRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)
	`, email).Scan(&exists)
	return exists, err
}

// SetRole updates an account's role
func (r *AccountRepository) SetRole(ctx context.Context, id int64, role string) error {
	result, err := r.db.Exec(ctx, `UPDATE accounts SET role = $2 WHERE id = $1`, id, role)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// List returns accounts ordered by creation time, newest first
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, name, email, password_hash, role, credits, balance, referral_code, referred_by, created_at
		FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		var a domain.Account
		var referredBy *int64
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role,
			&a.Credits, &a.Balance, &a.ReferralCode, &referredBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.ReferredBy = referredBy
		accounts = append(accounts, &a)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var referredBy *int64

	if err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role,
		&a.Credits, &a.Balance, &a.ReferralCode, &referredBy, &a.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	a.ReferredBy = referredBy
	return &a, nil
}
