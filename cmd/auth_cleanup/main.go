package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"figureit/internal/database"
	"figureit/internal/domain/auth"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	removed, err := auth.NewRepository(db).DeleteStaleResetTokens(context.Background(), time.Now())
	if err != nil {
		log.Fatalf("cleanup password_reset_tokens failed: %v", err)
	}

	log.Printf("auth cleanup completed: password_reset_tokens=%d", removed)
}
