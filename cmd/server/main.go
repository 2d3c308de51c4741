package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/joho/godotenv"

	"github.com/authdeck/internal/config"
	"github.com/authdeck/internal/db"
	"github.com/authdeck/internal/http"
	"github.com/authdeck/internal/logger"
	"github.com/authdeck/internal/provider/keycloak"
	"github.com/authdeck/internal/session"
)

func main() {
	// Load .env file if it exists (optional, won't error if missing)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Environment)

	database, err := db.Init(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	broadcaster := session.NewBroadcaster()
	store := session.NewStore(cfg.Session.Secret, cfg.Session.TTL, broadcaster)

	sweeper := session.NewSweeper(store, database, slog.Default())
	if err := sweeper.Start(); err != nil {
		log.Fatalf("Failed to start session sweeper: %v", err)
	}
	defer sweeper.Stop()

	provider, err := keycloak.New(context.Background(), keycloak.Config{
		BaseURL:       cfg.Keycloak.BaseURL,
		Realm:         cfg.Keycloak.Realm,
		ClientID:      cfg.Keycloak.ClientID,
		ClientSecret:  cfg.Keycloak.ClientSecret,
		AdminUser:     cfg.Keycloak.AdminUser,
		AdminPassword: cfg.Keycloak.AdminPassword,
		AdminRealm:    cfg.Keycloak.AdminRealm,
		IssuerURL:     cfg.Keycloak.IssuerURL,
	}, slog.Default())
	if err != nil {
		log.Fatalf("Failed to initialize identity provider: %v", err)
	}

	slog.Info("identity provider configured",
		"url", cfg.Keycloak.BaseURL,
		"realm", cfg.Keycloak.Realm,
		"federatedProviders", len(cfg.Federated.Providers),
	)

	server := http.NewServer(cfg, database, provider, store, broadcaster)

	slog.Info("starting server", "address", cfg.ServerAddress)
	if err := server.Run(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
