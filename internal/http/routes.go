package http

import (
	"os"
	"strconv"
	"time"

	"indicafacil_backend/internal/http/handlers"
	"indicafacil_backend/internal/http/middleware"
	"indicafacil_backend/internal/pix"
	"indicafacil_backend/internal/service"
	"indicafacil_backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// RegisterRoutes wires the whole HTTP surface. The returned handler
// exposes the services for the bootstrap, the hub is the charge-event
// push channel the reconciler notifies.
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, gateway *pix.Client, version string) (*handlers.Handler, *ws.Hub) {
	hub := ws.NewHub()
	commission := service.NewCommissionService(db)
	reconcile := service.NewReconcileService(db, commission, hub)
	h := handlers.NewHandler(db, gateway, reconcile)
	healthHandler := handlers.NewHealthHandler(db, version)

	apiRateLimit := envInt("API_RATE_LIMIT", 60)
	apiRateWindow := time.Duration(envInt("API_RATE_WINDOW_SECONDS", 60)) * time.Second
	authRateLimit := envInt("AUTH_RATE_LIMIT", 5)
	authRateWindow := time.Duration(envInt("AUTH_RATE_WINDOW_SECONDS", 60)) * time.Second

	// Health checks and metrics (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Gateway callbacks come from the payment provider, not a browser;
	// per-IP limits would throttle the provider's single egress IP, so
	// the webhook stays outside the limited groups.
	r.POST("/payment-webhook", h.PaymentWebhook)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))

	// Auth
	auth := v1.Group("/auth")
	auth.Use(middleware.RedisRateLimit(authRateLimit, authRateWindow))
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
	}

	// Profile
	v1.GET("/me", middleware.JWT(), h.Me)
	v1.GET("/me/ledger", middleware.JWT(), h.MyLedger)

	// Recharges
	v1.GET("/packages", h.Packages)
	rechargeRL := middleware.AccountRateLimit("recharge", envInt("RECHARGE_RATE_LIMIT", 5), time.Minute)
	v1.POST("/recharge", middleware.JWT(), rechargeRL, h.CreateRecharge)
	v1.GET("/recharge/:transactionId/status", middleware.JWT(), h.RechargeStatus)
	v1.GET("/recharges", middleware.JWT(), h.MyRecharges)

	// Withdrawals
	withdrawRL := middleware.AccountRateLimit("withdraw", envInt("WITHDRAW_RATE_LIMIT", 3), time.Minute)
	v1.POST("/withdrawals", middleware.JWT(), withdrawRL, h.RequestWithdrawal)
	v1.GET("/withdrawals", middleware.JWT(), h.MyWithdrawals)

	// Referral program
	referral := v1.Group("/referral")
	referral.Use(middleware.JWT())
	{
		referral.GET("/code", h.GetReferralCode)
		referral.GET("/link", h.GetReferralLink)
		referral.GET("/stats", h.GetReferralStats)
	}

	// Admin surface
	admin := v1.Group("/admin")
	admin.Use(middleware.JWT(), middleware.RequireAdmin())
	{
		admin.GET("/stats", h.AdminStats)
		admin.GET("/accounts", h.AdminListAccounts)
		admin.GET("/accounts/:id", h.AdminGetAccount)
		admin.POST("/accounts/:id/balance", h.AdminAdjustBalance)
		admin.POST("/accounts/:id/credits", h.AdminAdjustCredits)
		admin.GET("/withdrawals", h.AdminPendingWithdrawals)
		admin.POST("/withdrawals/:id/approve", h.AdminApproveWithdrawal)
		admin.POST("/withdrawals/:id/reject", h.AdminRejectWithdrawal)
		admin.GET("/unmatched", h.AdminOpenUnmatched)
		admin.POST("/unmatched/:id/resolve", h.AdminResolveUnmatched)
		admin.GET("/commissions/stuck", h.AdminStuckCommissions)
		admin.GET("/audit", h.AdminAuditLogs)
	}

	// Charge-status push
	r.GET("/ws", h.WS(hub))

	return h, hub
}
