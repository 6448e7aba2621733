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

	"github.com/joho/godotenv"
	"github.com/polyui/catalog-mcp/internal/config"
	"github.com/polyui/catalog-mcp/internal/models"
	"github.com/polyui/catalog-mcp/internal/repository"
	"github.com/polyui/catalog-mcp/internal/server"
	"github.com/polyui/catalog-mcp/internal/service"
	"github.com/polyui/catalog-mcp/internal/storage"
)

func main() {
	// Load env if it exists
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	models.SetTableNames(cfg.Tables.Accounts, cfg.Tables.Sessions, cfg.Tables.UsageLogs)

	postgres, err := storage.NewPostgres(cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer postgres.Close()

	if err := postgres.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Connected to postgres successfully")

	redis, err := storage.NewRedis(
		cfg.Redis.GetRedisAddr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	log.Println("Connected to redis successfully")

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		bootstrapAdmin(cfg, postgres)
	}

	srv, err := server.New(cfg, redis, postgres)
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}

	go func() {
		addr := ":" + cfg.Server.Port
		if err := srv.Run(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// bootstrapAdmin ensures the configured operator account exists. Safe to run
// on every start; an existing account is left untouched.
func bootstrapAdmin(cfg *config.Config, postgres *storage.Postgres) {
	admins := service.NewAdminService(
		repository.NewAdminUserRepository(postgres),
		cfg.Admin.JWTSecret,
		cfg.Admin.ExpiryHours,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := admins.Register(ctx, cfg.Admin.Email, cfg.Admin.Password, "bootstrap"); err != nil {
		if errors.Is(err, service.ErrAdminExists) {
			return
		}
		log.Printf("Failed to bootstrap admin account: %v", err)
		return
	}

	log.Printf("Bootstrapped admin account %s", cfg.Admin.Email)
}
