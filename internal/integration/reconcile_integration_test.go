package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/pix"
	"indicafacil_backend/internal/repository"
	"indicafacil_backend/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

func newReconciler(db *pgxpool.Pool) *service.ReconcileService {
	return service.NewReconcileService(db, service.NewCommissionService(db), nil)
}

func pendingCharge(t *testing.T, db *pgxpool.Pool, accountID int64, pkg domain.CreditPackage, expiresAt time.Time) *domain.Charge {
	t.Helper()
	c := &domain.Charge{
		TransactionID: uniqueTxID(t),
		AccountID:     accountID,
		PackageID:     pkg.ID,
		Amount:        pkg.Price,
		Credits:       pkg.Credits,
		BonusCredits:  pkg.Bonus,
		Status:        domain.ChargeStatusPending,
		ExpiresAt:     expiresAt,
	}
	if err := repository.NewChargeRepository(db).Create(context.Background(), c); err != nil {
		t.Fatalf("create charge: %v", err)
	}
	return c
}

func TestReconcile_DuplicateDeliveryCreditsOnce(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	account := newAccount(t, db)
	pkg, _ := domain.PackageByID(2)
	charge := pendingCharge(t, db, account.ID, pkg, time.Now().Add(30*time.Minute))

	rec := newReconciler(db)
	ev := &pix.PaymentEvent{
		TransactionID: charge.TransactionID,
		Amount:        charge.Amount,
		Status:        "paid",
		PaidAt:        time.Now().UTC(),
	}

	outcome, err := rec.Reconcile(ctx, ev)
	if err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if outcome != service.OutcomeApplied {
		t.Fatalf("first outcome = %s, want applied", outcome)
	}

	outcome, err = rec.Reconcile(ctx, ev)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if outcome != service.OutcomeDuplicate {
		t.Fatalf("second outcome = %s, want duplicate", outcome)
	}

	got := reloadAccount(t, db, account.ID)
	if got.Credits != pkg.TotalCredits() {
		t.Errorf("credits = %d, want %d (credited exactly once)", got.Credits, pkg.TotalCredits())
	}

	entries, err := repository.NewLedgerRepository(db).GetByReferenceID(ctx, charge.TransactionID)
	if err != nil {
		t.Fatalf("ledger lookup: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("ledger entries for charge = %d, want 1", len(entries))
	}
}

func TestReconcile_FailureEventCancelsCharge(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	account := newAccount(t, db)
	pkg, _ := domain.PackageByID(1)
	charge := pendingCharge(t, db, account.ID, pkg, time.Now().Add(30*time.Minute))

	rec := newReconciler(db)
	outcome, err := rec.Reconcile(ctx, &pix.PaymentEvent{
		TransactionID: charge.TransactionID,
		Status:        "cancelled",
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if outcome != service.OutcomeCancelled {
		t.Fatalf("outcome = %s, want cancelled", outcome)
	}

	stored, err := repository.NewChargeRepository(db).GetByTransactionID(ctx, charge.TransactionID)
	if err != nil {
		t.Fatalf("reload charge: %v", err)
	}
	if stored.Status != domain.ChargeStatusCancelled {
		t.Errorf("charge status = %s, want cancelled", stored.Status)
	}
	if got := reloadAccount(t, db, account.ID); got.Credits != 0 {
		t.Errorf("credits = %d, want 0", got.Credits)
	}
}

func TestReconcile_SuccessAfterExpiryIsQuarantined(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	account := newAccount(t, db)
	pkg, _ := domain.PackageByID(1)
	charge := pendingCharge(t, db, account.ID, pkg, time.Now().Add(-time.Minute))

	rec := newReconciler(db)
	outcome, err := rec.Reconcile(ctx, &pix.PaymentEvent{
		TransactionID: charge.TransactionID,
		Status:        "paid",
		PaidAt:        time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if outcome != service.OutcomeExpired {
		t.Fatalf("outcome = %s, want expired", outcome)
	}

	if got := reloadAccount(t, db, account.ID); got.Credits != 0 {
		t.Errorf("credits = %d, want 0 (expired charge must not credit)", got.Credits)
	}

	open, err := repository.NewUnmatchedPaymentRepository(db).GetOpen(ctx, 500)
	if err != nil {
		t.Fatalf("open unmatched: %v", err)
	}
	found := false
	for _, u := range open {
		if u.GatewayTxID == charge.TransactionID {
			found = true
		}
	}
	if !found {
		t.Error("expected an unmatched record for the late success event")
	}
}

func TestReconcile_ConcurrentDeliveriesCreditOnce(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	account := newAccount(t, db)
	pkg, _ := domain.PackageByID(3)
	charge := pendingCharge(t, db, account.ID, pkg, time.Now().Add(30*time.Minute))

	rec := newReconciler(db)
	paidAt := time.Now().UTC()

	const deliveries = 8
	outcomes := make(chan service.ReconcileOutcome, deliveries)
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := rec.Reconcile(ctx, &pix.PaymentEvent{
				TransactionID: charge.TransactionID,
				Amount:        charge.Amount,
				Status:        "paid",
				PaidAt:        paidAt,
			})
			if err != nil {
				t.Errorf("reconcile: %v", err)
				return
			}
			outcomes <- outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	applied := 0
	for outcome := range outcomes {
		switch outcome {
		case service.OutcomeApplied:
			applied++
		case service.OutcomeDuplicate:
		default:
			t.Errorf("unexpected outcome %s", outcome)
		}
	}
	if applied != 1 {
		t.Errorf("applied = %d, want exactly 1", applied)
	}

	if got := reloadAccount(t, db, account.ID); got.Credits != pkg.TotalCredits() {
		t.Errorf("credits = %d, want %d", got.Credits, pkg.TotalCredits())
	}
	entries, err := repository.NewLedgerRepository(db).GetByReferenceID(ctx, charge.TransactionID)
	if err != nil {
		t.Fatalf("ledger lookup: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(entries))
	}
}

func TestReconcile_AmountFallbackMatchesByEmail(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	payer := newAccount(t, db)
	bystander := newAccount(t, db)
	pkg, _ := domain.PackageByID(2)
	payerCharge := pendingCharge(t, db, payer.ID, pkg, time.Now().Add(30*time.Minute))
	bystanderCharge := pendingCharge(t, db, bystander.ID, pkg, time.Now().Add(30*time.Minute))

	rec := newReconciler(db)
	outcome, err := rec.Reconcile(ctx, &pix.PaymentEvent{
		Amount:   pkg.Price,
		Customer: payer.Email,
		Status:   "paid",
		PaidAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if outcome != service.OutcomeApplied {
		t.Fatalf("outcome = %s, want applied", outcome)
	}

	if got := reloadAccount(t, db, payer.ID); got.Credits != pkg.TotalCredits() {
		t.Errorf("payer credits = %d, want %d", got.Credits, pkg.TotalCredits())
	}
	if got := reloadAccount(t, db, bystander.ID); got.Credits != 0 {
		t.Errorf("bystander credits = %d, want 0", got.Credits)
	}

	charges := repository.NewChargeRepository(db)
	stored, err := charges.GetByTransactionID(ctx, payerCharge.TransactionID)
	if err != nil {
		t.Fatalf("reload payer charge: %v", err)
	}
	if stored.Status != domain.ChargeStatusPaid {
		t.Errorf("payer charge status = %s, want paid", stored.Status)
	}
	stored, err = charges.GetByTransactionID(ctx, bystanderCharge.TransactionID)
	if err != nil {
		t.Fatalf("reload bystander charge: %v", err)
	}
	if stored.Status != domain.ChargeStatusPending {
		t.Errorf("bystander charge status = %s, want pending", stored.Status)
	}
}

func TestReconcile_AmountFallbackWithoutEmailIsUnmatched(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	account := newAccount(t, db)
	pkg, _ := domain.PackageByID(4)
	pendingCharge(t, db, account.ID, pkg, time.Now().Add(30*time.Minute))

	rec := newReconciler(db)
	outcome, err := rec.Reconcile(ctx, &pix.PaymentEvent{
		Amount: pkg.Price,
		Status: "paid",
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if outcome != service.OutcomeUnmatched {
		t.Fatalf("outcome = %s, want unmatched (no payer email to narrow by)", outcome)
	}
	if got := reloadAccount(t, db, account.ID); got.Credits != 0 {
		t.Errorf("credits = %d, want 0", got.Credits)
	}
}

func TestReconcile_AmbiguousAmountMatchIsUnmatched(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	account := newAccount(t, db)
	pkg, _ := domain.PackageByID(1)
	pendingCharge(t, db, account.ID, pkg, time.Now().Add(30*time.Minute))
	pendingCharge(t, db, account.ID, pkg, time.Now().Add(30*time.Minute))

	rec := newReconciler(db)
	outcome, err := rec.Reconcile(ctx, &pix.PaymentEvent{
		Amount:   pkg.Price,
		Customer: account.Email,
		Status:   "paid",
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if outcome != service.OutcomeUnmatched {
		t.Fatalf("outcome = %s, want unmatched (two candidates)", outcome)
	}
	if got := reloadAccount(t, db, account.ID); got.Credits != 0 {
		t.Errorf("credits = %d, want 0 (ambiguity must not guess)", got.Credits)
	}
}

func TestReconcile_UnknownEventIsRecorded(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	rec := newReconciler(db)
	txid := uniqueTxID(t)
	outcome, err := rec.Reconcile(ctx, &pix.PaymentEvent{
		TransactionID: txid,
		Amount:        42_42, // matches no package and no pending charge
		Status:        "paid",
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if outcome != service.OutcomeUnmatched {
		t.Fatalf("outcome = %s, want unmatched", outcome)
	}

	open, err := repository.NewUnmatchedPaymentRepository(db).GetOpen(ctx, 500)
	if err != nil {
		t.Fatalf("open unmatched: %v", err)
	}
	found := false
	for _, u := range open {
		if u.GatewayTxID == txid {
			found = true
		}
	}
	if !found {
		t.Error("expected the event to be stored for manual review")
	}
}
