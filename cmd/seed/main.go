// Command seed creates the storefront admin account, or promotes an existing
// account with the same email and resets its password. It reads
// SEED_ADMIN_* and POSTGRES_* from the environment (or a .env file).
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"storefront-catalog-service/internal/auth"
	"storefront-catalog-service/internal/config"
	"storefront-catalog-service/internal/domain"
	"storefront-catalog-service/internal/store"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}
	logger := log.New(os.Stdout, "[CatalogSeed] ", log.LstdFlags|log.Lmicroseconds)

	if err := run(logger); err != nil {
		logger.Fatalf("FATAL: %v", err)
	}
}

func run(logger *log.Logger) error {
	seedCfg, err := config.LoadSeed()
	if err != nil {
		return err
	}
	pgCfg, err := config.LoadPostgres()
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", pgCfg.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if err := store.Migrate(ctx, db); err != nil {
		return err
	}

	hash, err := auth.HashPassword(seedCfg.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, created, err := store.NewPostgresStore(db).UpsertStaffUser(ctx, &domain.User{
		Email:        seedCfg.Email,
		PasswordHash: hash,
		FirstName:    seedCfg.FirstName,
		LastName:     seedCfg.LastName,
	})
	if err != nil {
		return err
	}

	if created {
		logger.Printf("INFO: Created admin user %s (id %d)", user.Email, user.ID)
	} else {
		logger.Printf("INFO: Admin user %s already existed; promoted to staff and password reset", user.Email)
	}
	return nil
}
