package handlers

import (
	"indicafacil_backend/internal/pix"
	"indicafacil_backend/internal/repository"
	"indicafacil_backend/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB *pgxpool.Pool

	AuthService       *service.AuthService
	ChargeService     *service.ChargeService
	ReconcileService  *service.ReconcileService
	WithdrawalService *service.WithdrawalService
	BalanceService    *service.BalanceService
	AdminService      *service.AdminService
	AuditService      *service.AuditService

	AccountRepo  *repository.AccountRepository
	ReferralRepo *repository.ReferralRepository
}

func NewHandler(db *pgxpool.Pool, gateway *pix.Client, reconcile *service.ReconcileService) *Handler {
	return &Handler{
		DB:                db,
		AuthService:       service.NewAuthService(db),
		ChargeService:     service.NewChargeService(db, gateway),
		ReconcileService:  reconcile,
		WithdrawalService: service.NewWithdrawalService(db),
		BalanceService:    service.NewBalanceService(db),
		AdminService:      service.NewAdminService(db),
		AuditService:      service.NewAuditService(db),
		AccountRepo:       repository.NewAccountRepository(db),
		ReferralRepo:      repository.NewReferralRepository(db),
	}
}

// getAccountID pulls the authenticated account id out of the gin context
func getAccountID(c interface{ Get(string) (any, bool) }) (int64, bool) {
	val, ok := c.Get("account_id")
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
