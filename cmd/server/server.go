package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"codeberg.org/tetherlabs/authgw/internal/authn"
	"codeberg.org/tetherlabs/authgw/internal/config"
	"codeberg.org/tetherlabs/authgw/internal/identity"
	"codeberg.org/tetherlabs/authgw/tether/profiles"
)

// creates and configures a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	ctx := context.Background()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// the gateway only mirrors profiles, a small pool is plenty
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	profileRepo := profiles.NewRepository(db)

	identityClient := identity.NewClient(identity.ClientConfig{
		APIKey:   cfg.IdentityAPIKey,
		BaseURL:  cfg.IdentityBaseURL,
		TokenURL: cfg.IdentityTokenURL,
	})

	verifier := identity.NewVerifier(identity.VerifierConfig{
		CertsURL: cfg.IdentityCertsURL,
		Issuer:   cfg.IdentityIssuer,
		Audience: cfg.IdentityAudience,
	})

	authService := authn.NewService(identityClient, profileRepo, verifier)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	server := &Server{
		db:          db,
		config:      cfg,
		profileRepo: profileRepo,
		identity:    identityClient,
		verifier:    verifier,
		authService: authService,
		router:      router,
	}

	RegisterRoutes(router, server)

	return server, nil
}
