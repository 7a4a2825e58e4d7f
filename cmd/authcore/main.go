package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/nimbus-works/authcore/internal/adapters/driven/github"
	"github.com/nimbus-works/authcore/internal/adapters/driven/postgres"
	redisadapter "github.com/nimbus-works/authcore/internal/adapters/driven/redis"
	"github.com/nimbus-works/authcore/internal/adapters/driving/http"
	"github.com/nimbus-works/authcore/internal/config"
	"github.com/nimbus-works/authcore/internal/core/ports/driven"
	"github.com/nimbus-works/authcore/internal/core/ports/driving"
	"github.com/nimbus-works/authcore/internal/core/services"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("authcore %s starting", version)

	ctx := context.Background()

	// ===== Initialize PostgreSQL =====
	log.Println("Connecting to PostgreSQL...")
	db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize schema (idempotent)
	if err := db.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("PostgreSQL connected and schema initialized")

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	// ===== Auth State Store (Redis if available, otherwise PostgreSQL) =====
	var stateStore driven.StateStore
	var redisPinger http.Pinger
	if redisClient != nil {
		rs := redisadapter.NewStateStore(redisClient)
		stateStore = rs
		redisPinger = rs
		log.Println("Using Redis auth state store")
	} else {
		stateStore = postgres.NewStateStore(db)
		log.Println("Using PostgreSQL auth state store")
	}

	// ===== GitHub OAuth (enabled only when credentials are configured) =====
	var oauthService driving.OAuthService
	if cfg.GitHubEnabled() {
		client := github.NewClient(github.DefaultConfig(
			cfg.GitHubClientID,
			cfg.GitHubClientSecret,
			cfg.CallbackURL(),
		))
		oauthService = services.NewOAuthService(services.OAuthServiceConfig{
			StateStore:      stateStore,
			Client:          client,
			StateTTL:        cfg.StateTTL,
			StrictStateSave: cfg.StrictStateSave,
			Logger:          slog.Default(),
		})
		log.Println("GitHub auth enabled")
	} else {
		log.Println("GITHUB_CLIENT_ID/GITHUB_CLIENT_SECRET not set, starting without GitHub auth")
	}

	server := http.NewServer(
		http.Config{Host: cfg.Host, Port: cfg.Port, Version: version},
		oauthService,
		db,
		redisPinger,
	)

	log.Printf("API server starting on :%d", cfg.Port)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
