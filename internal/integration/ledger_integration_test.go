package integration

import (
	"context"
	"testing"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/repository"
)

func TestLedger_CompletedReferenceTypeIsUnique(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	account := newAccount(t, db)
	repo := repository.NewLedgerRepository(db)
	ref := uniqueTxID(t)

	first := &domain.LedgerEntry{
		AccountID:   account.ID,
		Type:        domain.LedgerTypeRecharge,
		Amount:      25_00,
		ReferenceID: ref,
		Status:      domain.LedgerStatusCompleted,
	}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	dup := &domain.LedgerEntry{
		AccountID:   account.ID,
		Type:        domain.LedgerTypeRecharge,
		Amount:      25_00,
		ReferenceID: ref,
		Status:      domain.LedgerStatusCompleted,
	}
	if err := repo.Create(ctx, dup); err == nil {
		t.Fatal("duplicate completed (reference, type) must be rejected")
	}

	// a different type under the same reference is a distinct fact
	bonus := &domain.LedgerEntry{
		AccountID:   account.ID,
		Type:        domain.LedgerTypeBonus,
		Amount:      3_75,
		ReferenceID: ref,
		Status:      domain.LedgerStatusCompleted,
	}
	if err := repo.Create(ctx, bonus); err != nil {
		t.Fatalf("different type insert: %v", err)
	}

	exists, err := repo.ExistsCompleted(ctx, ref, domain.LedgerTypeRecharge)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Error("completed entry should be visible to the idempotency check")
	}
}
