package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

func connectTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	applyMigrations(t, db)
	return db
}

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		if filepath.Ext(f.Name()) != ".sql" {
			continue
		}
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

// newAccount inserts an account with a unique email and returns it fresh
// from the database.
func newAccount(t *testing.T, db *pgxpool.Pool) *domain.Account {
	t.Helper()
	repo := repository.NewAccountRepository(db)
	a := &domain.Account{
		Name:         "Test Account",
		Email:        fmt.Sprintf("acct-%d@example.com", time.Now().UnixNano()),
		PasswordHash: "x",
		Role:         domain.RoleUser,
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func reloadAccount(t *testing.T, db *pgxpool.Pool, id int64) *domain.Account {
	t.Helper()
	a, err := repository.NewAccountRepository(db).GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload account: %v", err)
	}
	if a == nil {
		t.Fatalf("account %d disappeared", id)
	}
	return a
}

func uniqueTxID(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("REC_%d_TEST", time.Now().UnixNano())
}
