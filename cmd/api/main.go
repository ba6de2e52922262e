package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"figureit/internal/config"
	"figureit/internal/database"
	"figureit/internal/domain/asset"
	"figureit/internal/domain/auth"
	"figureit/internal/domain/category"
	"figureit/internal/pkg/jwt"
	"figureit/internal/pkg/logger"
	"figureit/internal/server"
	"figureit/internal/storage"
	"figureit/internal/storage/gcs"
	"figureit/internal/storage/local"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	appLog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer appLog.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("db connect failed", "error", err)
	}
	if err := database.Migrate(db, server.Models()...); err != nil {
		appLog.Fatal("migration failed", "error", err)
	}

	var (
		store      storage.ObjectStore
		localStore *local.Store
	)
	switch cfg.Storage.Backend {
	case config.StorageGCS:
		gs, err := gcs.New(ctx, appLog, cfg.Storage.Bucket, cfg.Storage.GCSCredentialsFile, cfg.Storage.GCSCDNDomain)
		if err != nil {
			appLog.Fatal("gcs init failed", "error", err)
		}
		defer gs.Close()
		store = gs
	default:
		localStore, err = local.New(cfg.Storage.Dir, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL+"/api/v1", cfg.Storage.SigningSecret)
		if err != nil {
			appLog.Fatal("local storage init failed", "error", err)
		}
		store = localStore
	}

	tokens := jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	authService := auth.NewService(
		auth.NewRepository(db),
		tokens,
		auth.NewLogMailer(appLog),
		auth.NewEventBus(),
		appLog,
		cfg.AppURL,
		cfg.ResetTokenTTL,
	)
	categoryService := category.NewService(category.NewRepository(db), appLog)
	assetService := asset.NewService(asset.NewRepository(db), store, categoryService, appLog, cfg.Storage.SignedURLTTL)

	router := server.NewRouter(server.Deps{
		Log:         appLog,
		Tokens:      tokens,
		Auth:        authService,
		Categories:  categoryService,
		Assets:      assetService,
		CORSOrigins: cfg.CORSAllowedOrigins,
		LocalStore:  localStore,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Info("http server listening", "addr", cfg.HTTPAddr, "env", cfg.AppEnv, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("graceful shutdown failed", "error", err)
	}
}
