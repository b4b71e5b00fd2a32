package integration

import (
	"context"
	"testing"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/repository"
	"indicafacil_backend/internal/service"
)

func TestCommission_FirstRechargePaysFixed(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	referrer := newAccount(t, db)
	referred := newAccount(t, db)
	referralRepo := repository.NewReferralRepository(db)
	if err := referralRepo.CreateLink(ctx, referrer.ID, referred.ID); err != nil {
		t.Fatalf("create link: %v", err)
	}

	commission := service.NewCommissionService(db)
	txid := uniqueTxID(t)
	if err := commission.Apply(ctx, referred.ID, txid, 25_00); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got := reloadAccount(t, db, referrer.ID)
	if got.Balance != domain.ReferralCommission {
		t.Errorf("referrer balance = %d, want %d", got.Balance, domain.ReferralCommission)
	}

	link, err := referralRepo.GetByReferredID(ctx, referred.ID)
	if err != nil {
		t.Fatalf("reload link: %v", err)
	}
	if link.Status != domain.ReferralStatusActive {
		t.Errorf("link status = %s, want active", link.Status)
	}
	if link.CommissionPaid != domain.ReferralCommission {
		t.Errorf("commission_paid = %d, want %d", link.CommissionPaid, domain.ReferralCommission)
	}

	exists, err := repository.NewLedgerRepository(db).ExistsCompleted(ctx, txid+":commission", domain.LedgerTypeCommission)
	if err != nil {
		t.Fatalf("ledger check: %v", err)
	}
	if !exists {
		t.Error("expected a completed commission ledger entry")
	}
}

func TestCommission_LaterRechargesPayResidual(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	referrer := newAccount(t, db)
	referred := newAccount(t, db)
	referralRepo := repository.NewReferralRepository(db)
	if err := referralRepo.CreateLink(ctx, referrer.ID, referred.ID); err != nil {
		t.Fatalf("create link: %v", err)
	}

	commission := service.NewCommissionService(db)
	if err := commission.Apply(ctx, referred.ID, uniqueTxID(t), 30_00); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	secondTx := uniqueTxID(t)
	if err := commission.Apply(ctx, referred.ID, secondTx, 100_00); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	want := domain.ReferralCommission + domain.ResidualBonus(100_00)
	got := reloadAccount(t, db, referrer.ID)
	if got.Balance != want {
		t.Errorf("referrer balance = %d, want %d (fixed + residual)", got.Balance, want)
	}

	exists, err := repository.NewLedgerRepository(db).ExistsCompleted(ctx, secondTx+":bonus", domain.LedgerTypeBonus)
	if err != nil {
		t.Fatalf("ledger check: %v", err)
	}
	if !exists {
		t.Error("expected a completed residual bonus ledger entry")
	}

	// duplicate residual application is a no-op
	if err := commission.Apply(ctx, referred.ID, secondTx, 100_00); err != nil {
		t.Fatalf("reapply: %v", err)
	}
	if got := reloadAccount(t, db, referrer.ID); got.Balance != want {
		t.Errorf("balance after reapply = %d, want %d", got.Balance, want)
	}
}

func TestCommission_NoLinkIsANoOp(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	account := newAccount(t, db)
	commission := service.NewCommissionService(db)
	if err := commission.Apply(ctx, account.ID, uniqueTxID(t), 50_00); err != nil {
		t.Fatalf("apply without link: %v", err)
	}
}
