package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/horeca-backoffice/apps/api/internal/db"
)

func main() {
	_ = godotenv.Load()

	command := flag.String("command", "up", "goose command: up, down, status, redo, reset")
	flag.Parse()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	if err := db.Migrate(context.Background(), databaseURL, *command, flag.Args()...); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}
