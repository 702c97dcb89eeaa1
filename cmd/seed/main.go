package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/horeca-backoffice/apps/api/internal/auth"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	companyName := envOrDefault("SEED_COMPANY_NAME", "Local Dev Gastro GmbH")
	fullName := envOrDefault("SEED_USER_NAME", "Local Admin")

	companyID := uuid.New()
	if raw := os.Getenv("DEFAULT_COMPANY_ID"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			log.Fatalf("DEFAULT_COMPANY_ID: %v", err)
		}
		companyID = parsed
	}
	userID := uuid.New()
	if raw := os.Getenv("SEED_USER_ID"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			log.Fatalf("SEED_USER_ID: %v", err)
		}
		userID = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO companies (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`, companyID, companyName); err != nil {
		log.Fatalf("upsert company: %v", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO profiles (user_id, company_id, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET company_id = EXCLUDED.company_id, full_name = EXCLUDED.full_name
	`, userID, companyID, fullName); err != nil {
		log.Fatalf("upsert profile: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("commit tx: %v", err)
	}

	token, err := auth.NewVerifier(jwtSecret, os.Getenv("JWT_ISSUER")).Issue(userID, 24*time.Hour)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}

	fmt.Printf("Seed complete\ncompany_id: %s\nuser_id: %s\nbearer token (24h): %s\n", companyID, userID, token)
}

func envOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
