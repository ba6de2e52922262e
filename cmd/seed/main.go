package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"

	"figureit/internal/config"
	"figureit/internal/database"
	"figureit/internal/domain/auth"
	"figureit/internal/domain/category"
	"figureit/internal/pkg/apperr"
	"figureit/internal/pkg/logger"
	"figureit/internal/server"
)

var starterCategories = []string{
	"Figurines",
	"Vases",
	"Jewelry",
	"Wall Art",
	"Custom Orders",
}

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running migrations...")
	if err := database.Migrate(db, server.Models()...); err != nil {
		log.Fatal("migrate failed:", err)
	}

	nop := logger.NewNop()
	repo := auth.NewRepository(db)
	authService := auth.NewService(repo, nil, auth.NewLogMailer(nop), auth.NewEventBus(), nop, cfg.AppURL, cfg.ResetTokenTTL)

	email := getEnv("SEED_ADMIN_EMAIL", "admin@figureit.local")
	log.Println("Creating admin...")
	created, err := authService.CreateUser(ctx, auth.CreateUserRequest{
		Email:        email,
		FullName:     "Administrator",
		Role:         auth.RoleAdmin,
		TempPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
	})

	var admin *auth.User
	switch {
	case err == nil:
		admin = created.User
		log.Printf("admin created: %s / %s", email, created.TempPassword)
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		if admin, err = repo.GetUserByEmail(ctx, email); err != nil {
			log.Fatal("lookup admin failed:", err)
		}
		log.Printf("admin %s already exists, skipping", email)
	default:
		log.Fatal("create admin failed:", err)
	}

	log.Println("Creating categories...")
	categories := category.NewService(category.NewRepository(db), nop)
	for _, name := range starterCategories {
		_, err := categories.Create(ctx, admin.ID, name)
		switch {
		case err == nil:
			log.Printf("  + %s", name)
		case errors.Is(err, apperr.ErrDuplicateName):
			log.Printf("  = %s", name)
		default:
			log.Fatalf("create category %q failed: %v", name, err)
		}
	}

	log.Println("Seed completed")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
