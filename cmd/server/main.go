package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"homeheroes/internal/clock"
	"homeheroes/internal/config"
	"homeheroes/internal/handlers"
	"homeheroes/internal/identity"
	"homeheroes/internal/notify"
	"homeheroes/internal/reconcile"
	"homeheroes/internal/security"
	"homeheroes/internal/store"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Load the seed document and stamp it with the current day and phase
	seed, err := config.LoadSeed(cfg.SeedPath)
	if err != nil {
		log.Fatalf("Failed to load seed: %v", err)
	}
	clk := clock.SystemClock{}
	seed.CurrentDay, seed.CurrentTimePhase = clock.Resolve(clk.Now())

	// Open the document store
	var familyStore store.Store
	if cfg.StoreType == "memory" {
		familyStore = store.NewMemoryStore()
		log.Println("Using in-memory document store")
	} else {
		sqlStore, err := store.Open(cfg.StoreType, cfg.DatabasePath, cfg.DatabaseURL, cfg.StorePollInterval)
		if err != nil {
			log.Fatalf("Failed to open document store: %v", err)
		}
		defer sqlStore.Close()
		familyStore = sqlStore
		log.Printf("Document store ready (type: %s)", cfg.StoreType)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Email notifier for pending approvals (optional)
	notifier, err := notify.NewEmailNotifier(ctx, cfg.EmailFrom, cfg.ParentEmail)
	if err != nil {
		log.Printf("Warning: email notifications unavailable: %v", err)
		notifier = nil
	}

	// Identity service and allowlist
	allowList := identity.NewAllowList(cfg.AdminEmails)
	ids := identity.NewService(
		identity.LocalProvider{},
		allowList,
		cfg.SessionSecret,
		cfg.SessionDuration,
		cfg.ParentPasswordHash,
		cfg.AdminEmails[0],
	)

	// Reconciler owns the local snapshot and the remote sync
	opts := []reconcile.Option{reconcile.WithResyncInterval(cfg.ResyncInterval)}
	if notifier != nil && notifier.IsEnabled() {
		opts = append(opts, reconcile.WithNotifier(notifier))
	}
	rec := reconcile.New(familyStore, cfg.FamilyKey, clk, seed, opts...)

	go func() {
		if err := rec.Run(ctx); err != nil {
			log.Printf("Reconciler stopped: %v", err)
		}
	}()

	// Google OAuth for parent login (optional)
	var oauthConfig *oauth2.Config
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		oauthConfig = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
			RedirectURL:  cfg.OAuthRedirectBaseURL + "/auth/google/callback",
		}
	}

	// Initialize handlers
	limiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(ids, limiter)
	authHandler := handlers.NewAuthHandler(ids, oauthConfig)
	kioskHandler := handlers.NewKioskHandler(rec, ids)
	parentHandler := handlers.NewParentHandler(rec, ids)

	// Setup routes
	mux := http.NewServeMux()

	// Auth routes
	mux.HandleFunc("POST /auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /auth/google/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/google/callback", authHandler.OAuthCallback)

	// Kiosk routes (any console)
	mux.HandleFunc("GET /api/state", middleware.RequireSession(kioskHandler.State))
	mux.HandleFunc("GET /api/state/stream", middleware.RequireSession(kioskHandler.Stream))
	mux.HandleFunc("POST /api/players/{playerId}/tasks/{taskId}/complete", middleware.RequireSession(kioskHandler.CompleteTask))
	mux.HandleFunc("POST /api/players/{playerId}/tasks/{taskId}/shield", middleware.RequireSession(kioskHandler.UseShield))
	mux.HandleFunc("POST /api/players/{playerId}/shop/double", middleware.RequireSession(kioskHandler.BuyDouble))
	mux.HandleFunc("POST /api/players/{playerId}/shop/shield", middleware.RequireSession(kioskHandler.BuyShield))

	// Parent routes
	mux.HandleFunc("POST /api/admin/tasks", middleware.RequireAdmin(parentHandler.AddTask))
	mux.HandleFunc("POST /api/admin/players/{playerId}/tasks/{taskId}/approve", middleware.RequireAdmin(parentHandler.ApproveTask))
	mux.HandleFunc("POST /api/admin/players/{playerId}/tasks/{taskId}/reset", middleware.RequireAdmin(parentHandler.ResetTask))
	mux.HandleFunc("POST /api/admin/players/{playerId}/tasks/{taskId}/delete", middleware.RequireAdmin(parentHandler.DeleteTask))
	mux.HandleFunc("POST /api/admin/players/{playerId}/points", middleware.RequireAdmin(parentHandler.ManagePoints))
	mux.HandleFunc("POST /api/admin/boss/reset", middleware.RequireAdmin(parentHandler.ResetBoss))
	mux.HandleFunc("POST /api/admin/time", middleware.RequireAdmin(parentHandler.SetTime))
	mux.HandleFunc("POST /api/admin/day", middleware.RequireAdmin(parentHandler.SetDay))
	mux.HandleFunc("POST /api/admin/sync-real-time", middleware.RequireAdmin(parentHandler.SyncRealTime))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	// No WriteTimeout: the SSE state stream holds its response open
	server := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
