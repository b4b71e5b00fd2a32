package integration

import (
	"context"
	"errors"
	"testing"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/service"
)

func TestWithdrawal_RequestDebitsGross(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	account := newAccount(t, db)
	balance := service.NewBalanceService(db)
	if _, err := balance.Credit(ctx, account.ID, 200_00, domain.LedgerTypeAdjustment, "seed", uniqueTxID(t), nil); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	withdrawals := service.NewWithdrawalService(db)
	w, err := withdrawals.Request(ctx, account.ID, 150_00, "payer@example.com")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if w.Fee != 15_00 || w.NetAmount != 135_00 {
		t.Errorf("fee = %d net = %d, want 1500/13500", w.Fee, w.NetAmount)
	}
	if w.Status != domain.WithdrawalStatusPending {
		t.Errorf("status = %s, want pending", w.Status)
	}

	if got := reloadAccount(t, db, account.ID); got.Balance != 50_00 {
		t.Errorf("balance = %d, want 5000 (gross debited up front)", got.Balance)
	}
}

func TestWithdrawal_BelowMinimumRejected(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	account := newAccount(t, db)
	withdrawals := service.NewWithdrawalService(db)
	_, err := withdrawals.Request(ctx, account.ID, domain.MinWithdrawalAmount-1, "k")
	if !errors.Is(err, service.ErrWithdrawalTooSmall) {
		t.Errorf("err = %v, want ErrWithdrawalTooSmall", err)
	}
}

func TestWithdrawal_InsufficientFunds(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	account := newAccount(t, db)
	withdrawals := service.NewWithdrawalService(db)
	_, err := withdrawals.Request(ctx, account.ID, 100_00, "k")
	if !errors.Is(err, service.ErrInsufficientFunds) {
		t.Errorf("err = %v, want ErrInsufficientFunds", err)
	}
	if got := reloadAccount(t, db, account.ID); got.Balance != 0 {
		t.Errorf("balance = %d, want 0", got.Balance)
	}
}

func TestWithdrawal_RejectRefundsOnce(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	account := newAccount(t, db)
	admin := newAccount(t, db)
	balance := service.NewBalanceService(db)
	if _, err := balance.Credit(ctx, account.ID, 200_00, domain.LedgerTypeAdjustment, "seed", uniqueTxID(t), nil); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	withdrawals := service.NewWithdrawalService(db)
	w, err := withdrawals.Request(ctx, account.ID, 150_00, "k")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	rejected, err := withdrawals.Reject(ctx, w.ID, admin.ID, "pix key mismatch")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.WithdrawalStatusRejected {
		t.Errorf("status = %s, want rejected", rejected.Status)
	}
	if got := reloadAccount(t, db, account.ID); got.Balance != 200_00 {
		t.Errorf("balance = %d, want 20000 (gross refunded)", got.Balance)
	}

	// a second decision must not refund again
	if _, err := withdrawals.Reject(ctx, w.ID, admin.ID, "again"); !errors.Is(err, service.ErrWithdrawalDecided) {
		t.Errorf("second reject err = %v, want ErrWithdrawalDecided", err)
	}
	if got := reloadAccount(t, db, account.ID); got.Balance != 200_00 {
		t.Errorf("balance after second reject = %d, want 20000", got.Balance)
	}
}

func TestWithdrawal_ApproveIsFinal(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	account := newAccount(t, db)
	admin := newAccount(t, db)
	balance := service.NewBalanceService(db)
	if _, err := balance.Credit(ctx, account.ID, 100_00, domain.LedgerTypeAdjustment, "seed", uniqueTxID(t), nil); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	withdrawals := service.NewWithdrawalService(db)
	w, err := withdrawals.Request(ctx, account.ID, 100_00, "k")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	approved, err := withdrawals.Approve(ctx, w.ID, admin.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.WithdrawalStatusCompleted {
		t.Errorf("status = %s, want completed", approved.Status)
	}

	if _, err := withdrawals.Reject(ctx, w.ID, admin.ID, "too late"); !errors.Is(err, service.ErrWithdrawalDecided) {
		t.Errorf("reject after approve err = %v, want ErrWithdrawalDecided", err)
	}
	if got := reloadAccount(t, db, account.ID); got.Balance != 0 {
		t.Errorf("balance = %d, want 0 (no refund after approval)", got.Balance)
	}
}
