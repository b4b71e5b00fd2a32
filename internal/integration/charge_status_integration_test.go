package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/http/handlers"
	"indicafacil_backend/internal/pix"
	"indicafacil_backend/internal/service"

	"github.com/gin-gonic/gin"
)

func TestRechargeStatusHidesCreditsUntilPaid(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()
	gin.SetMode(gin.TestMode)

	account := newAccount(t, db)
	pkg, _ := domain.PackageByID(2)
	charge := pendingCharge(t, db, account.ID, pkg, time.Now().Add(30*time.Minute))

	rec := newReconciler(db)
	h := handlers.NewHandler(db, nil, rec)

	r := gin.New()
	r.GET("/recharge/:transactionId/status", func(c *gin.Context) {
		c.Set("account_id", account.ID)
	}, h.RechargeStatus)

	get := func() map[string]json.RawMessage {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/recharge/"+charge.TransactionID+"/status", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
		}
		var resp map[string]json.RawMessage
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return resp
	}

	resp := get()
	if string(resp["status"]) != `"pending"` {
		t.Errorf("status = %s, want pending", resp["status"])
	}
	if _, ok := resp["creditsAdded"]; ok {
		t.Error("pending charge must not expose creditsAdded")
	}
	if _, ok := resp["paidAt"]; ok {
		t.Error("pending charge must not expose paidAt")
	}

	outcome, err := rec.Reconcile(ctx, &pix.PaymentEvent{
		TransactionID: charge.TransactionID,
		Status:        "paid",
		PaidAt:        time.Now().UTC(),
	})
	if err != nil || outcome != service.OutcomeApplied {
		t.Fatalf("reconcile outcome = %s err = %v", outcome, err)
	}

	resp = get()
	if string(resp["status"]) != `"paid"` {
		t.Errorf("status = %s, want paid", resp["status"])
	}
	var creditsAdded int64
	if err := json.Unmarshal(resp["creditsAdded"], &creditsAdded); err != nil {
		t.Fatalf("paid charge should expose creditsAdded: %v", err)
	}
	if creditsAdded != pkg.TotalCredits() {
		t.Errorf("creditsAdded = %d, want %d", creditsAdded, pkg.TotalCredits())
	}
	if _, ok := resp["paidAt"]; !ok {
		t.Error("paid charge should expose paidAt")
	}
}
