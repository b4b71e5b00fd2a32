package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/logger"
	"indicafacil_backend/internal/pix"
	"indicafacil_backend/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInvalidPackage = errors.New("invalid package")
	ErrChargeNotFound = errors.New("charge not found")
)

// ChargeTTL is how long a Pix charge stays payable.
const ChargeTTL = 30 * time.Minute

// ChargeService owns the charge registry: it creates charges against the
// gateway, records them as pending and lazily expires them on reads.
type ChargeService struct {
	db         *pgxpool.Pool
	chargeRepo *repository.ChargeRepository
	gateway    *pix.Client
}

// NewChargeService creates a new charge service
func NewChargeService(db *pgxpool.Pool, gateway *pix.Client) *ChargeService {
	return &ChargeService{
		db:         db,
		chargeRepo: repository.NewChargeRepository(db),
		gateway:    gateway,
	}
}

// newTransactionID allocates a unique, gateway-correlatable id. It is
// generated locally before the gateway call so a timed-out creation can be
// reconciled (or retried with the same id) instead of creating a second
// remote charge.
func newTransactionID() string {
	bytes := make([]byte, 5)
	rand.Read(bytes)
	return fmt.Sprintf("REC_%d_%s", time.Now().UnixMilli(), strings.ToUpper(hex.EncodeToString(bytes)))
}

// CreateCharge registers a charge with the gateway and persists it as
// pending. Unknown package ids fail with ErrInvalidPackage; gateway
// failures surface as pix.GatewayError for the handler to classify.
func (s *ChargeService) CreateCharge(ctx context.Context, account *domain.Account, packageID int) (*domain.Charge, error) {
	pkg, ok := domain.PackageByID(packageID)
	if !ok {
		return nil, ErrInvalidPackage
	}

	transactionID := newTransactionID()

	resp, err := s.gateway.CreateCharge(ctx, &pix.ChargeRequest{
		TransactionID: transactionID,
		Amount:        pkg.Price,
		Description:   fmt.Sprintf("Recarga %d créditos", pkg.Credits),
		PayerName:     account.Name,
		PayerEmail:    account.Email,
		ExpiresIn:     int(ChargeTTL.Seconds()),
	})
	if err != nil {
		if pix.IsRetryable(err) {
			// The remote charge may exist even though the call failed;
			// log the id used so it can be reconciled manually.
			logger.Warn("gateway charge creation failed, remote state unknown",
				"transaction_id", transactionID, "error", err)
		}
		return nil, err
	}

	charge := &domain.Charge{
		TransactionID: transactionID,
		AccountID:     account.ID,
		PackageID:     pkg.ID,
		Amount:        pkg.Price,
		Credits:       pkg.Credits,
		BonusCredits:  pkg.Bonus,
		PayCode:       resp.PayCode,
		QRAsset:       resp.QRAsset,
		Status:        domain.ChargeStatusPending,
		ExpiresAt:     time.Now().Add(ChargeTTL),
	}
	if !resp.ExpiresAt.IsZero() {
		charge.ExpiresAt = resp.ExpiresAt
	}

	if err := s.chargeRepo.Create(ctx, charge); err != nil {
		return nil, err
	}

	logger.Info("charge created",
		"transaction_id", charge.TransactionID,
		"account_id", charge.AccountID,
		"amount", charge.Amount)

	return charge, nil
}

// GetCharge loads a charge, lazily expiring it when the TTL has passed.
func (s *ChargeService) GetCharge(ctx context.Context, transactionID string) (*domain.Charge, error) {
	charge, err := s.chargeRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if charge == nil {
		return nil, ErrChargeNotFound
	}

	if charge.Status == domain.ChargeStatusPending && time.Now().After(charge.ExpiresAt) {
		if err := s.chargeRepo.MarkExpired(ctx, transactionID); err == nil {
			charge.Status = domain.ChargeStatusExpired
			logger.Info("charge expired", "transaction_id", transactionID)
		}
	}

	return charge, nil
}

// ListCharges returns an account's recent charges
func (s *ChargeService) ListCharges(ctx context.Context, accountID int64, limit int) ([]domain.Charge, error) {
	return s.chargeRepo.GetByAccountID(ctx, accountID, limit)
}
