package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinescope/cinescope/src/internal/adapters/http_api"
	"github.com/cinescope/cinescope/src/internal/adapters/memory"
	"github.com/cinescope/cinescope/src/internal/adapters/metadata/tmdb"
	"github.com/cinescope/cinescope/src/internal/adapters/mongo"
	"github.com/cinescope/cinescope/src/internal/adapters/oidc"
	"github.com/cinescope/cinescope/src/internal/adapters/postgres"
	"github.com/cinescope/cinescope/src/internal/adapters/redis"
	"github.com/cinescope/cinescope/src/internal/config"
	"github.com/cinescope/cinescope/src/internal/ports"
	"github.com/cinescope/cinescope/src/internal/services"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML or JSON config file")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logCloser := config.SetupLogging(cfg.Log)
	defer logCloser.Close()

	log.Println("Starting cinescope API server...")
	log.Printf("Environment: %s", cfg.Env)
	log.Printf("Client URL: %s", cfg.ClientURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Initialize Adapters
	users, closeUsers := openUserRepo(ctx, cfg)
	defer closeUsers()

	sessionStore, closeSessions := openSessionStore(ctx, cfg)
	defer closeSessions()

	var provider ports.IdentityProvider
	if cfg.OIDCEnabled() {
		p, err := oidc.NewProvider(ctx, cfg.OIDC)
		if err != nil {
			// Login answers 503 without a provider.
			log.Printf("[Auth] Failed to init OIDC provider: %v", err)
		} else {
			provider = p
			log.Printf("[Auth] Google OAuth configured (%s)", cfg.OIDC.ProviderURL)
		}
	} else {
		log.Println("[Auth] GOOGLE_CLIENT_ID not set. Login disabled.")
	}

	var catalog *services.CatalogService
	if cfg.TMDB.Token != "" {
		catalog = services.NewCatalogService(tmdb.NewTMDBClient(cfg.TMDB.Token, cfg.TMDB.BaseURL))
	} else {
		log.Println("[Catalog] TMDB_TOKEN not set. Metadata endpoints disabled.")
	}

	// 2. Services
	secret := []byte(cfg.Sessions.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			log.Fatalf("Failed to generate state secret: %v", err)
		}
		log.Println("[Auth] SESSION_SECRET not set, using a random secret for this process")
	}

	srv := http_api.NewServer(cfg, http_api.Deps{
		Accounts:   services.NewAccountService(users),
		Sessions:   services.NewSessionService(sessionStore, time.Duration(cfg.Sessions.TTLHours)*time.Hour),
		Collection: services.NewCollectionService(users),
		Catalog:    catalog,
		Provider:   provider,
		State:      services.NewStateSigner(secret, 10*time.Minute),
	})
	defer srv.Close()

	// 3. Serve
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("API server listening on http://0.0.0.0:%s", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("API server stopped")
}

func openUserRepo(ctx context.Context, cfg *config.ServerConfig) (ports.UserRepository, func()) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.NewConnection(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatalf("Failed to migrate users schema: %v", err)
		}
		log.Println("Connected to Postgres (UserRepo)")
		return postgres.NewUserRepo(db), func() { db.Close() }

	case "mongo":
		db, err := mongo.NewMongoDB(cfg.Database.URL, cfg.Database.Name)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		repo := mongo.NewUserRepo(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to create user indexes: %v", err)
		}
		log.Println("Connected to MongoDB (UserRepo)")
		return repo, func() { db.Close(context.Background()) }

	default:
		log.Println("Using in-memory user store; saved titles are lost on restart")
		return memory.NewUserRepo(), func() {}
	}
}

func openSessionStore(ctx context.Context, cfg *config.ServerConfig) (ports.SessionStore, func()) {
	if cfg.Sessions.Driver == "redis" {
		client, err := redis.NewConnection(ctx, cfg.Sessions.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		log.Println("Connected to Redis (SessionStore)")
		return redis.NewSessionStore(client), func() { client.Close() }
	}
	log.Println("Using in-memory session store")
	return memory.NewSessionStore(), func() {}
}
