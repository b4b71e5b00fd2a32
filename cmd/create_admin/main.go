package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"indicafacil_backend/internal/db"
	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/repository"
	"indicafacil_backend/internal/service"

	"golang.org/x/crypto/bcrypt"
)

// Creates an admin account, or promotes an existing one, and prints a
// token for it. Expects DATABASE_URL and JWT_SECRET env vars.
func main() {
	email := flag.String("email", "", "admin email (required)")
	name := flag.String("name", "Admin", "display name for a new account")
	password := flag.String("password", "", "password for a new account")
	flag.Parse()

	if *email == "" {
		log.Fatal("-email is required")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	repo := repository.NewAccountRepository(pool)
	ctx := context.Background()

	account, err := repo.GetByEmail(ctx, strings.ToLower(*email))
	if err != nil {
		log.Fatalf("lookup failed: %v", err)
	}

	if account == nil {
		if *password == "" {
			log.Fatal("-password is required when the account does not exist")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		account = &domain.Account{
			Name:         *name,
			Email:        strings.ToLower(*email),
			PasswordHash: string(hash),
			Role:         domain.RoleAdmin,
		}
		if err := repo.Create(ctx, account); err != nil {
			log.Fatalf("create account failed: %v", err)
		}
		log.Printf("admin account created id=%d\n", account.ID)
	} else {
		if err := repo.SetRole(ctx, account.ID, domain.RoleAdmin); err != nil {
			log.Fatalf("promote failed: %v", err)
		}
		log.Printf("account id=%d promoted to admin\n", account.ID)
	}

	service.InitJWT()
	token, err := service.GenerateJWT(account.ID, domain.RoleAdmin)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	log.Printf("token=%s\n", token)
}
