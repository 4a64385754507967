package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cavemicro/isolate-api/assetstore"
	"github.com/cavemicro/isolate-api/auth"
	"github.com/cavemicro/isolate-api/handlers"
	"github.com/cavemicro/isolate-api/middleware"
	"github.com/cavemicro/isolate-api/notify"
	"github.com/cavemicro/isolate-api/services"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (optional - fails silently if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	slog.SetDefault(logger)

	slog.Info("Starting isolate API server initialization")

	dbConfig := NewDatabaseConfig()
	gormDB, err := ConnectGormDB(dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	// Service wiring.
	isolates := services.NewIsolateService(gormDB)
	catalog := services.NewCatalog(gormDB, isolates)
	policy := services.NewPolicyService(gormDB)
	tokens := auth.NewTokenService(jwtSecret, "isolate-api")

	var notifier notify.Notifier
	if smtp := notify.NewSMTPNotifierFromEnv(); smtp != nil {
		notifier = smtp
	}
	users := services.NewUserService(gormDB, tokens, policy, notifier)

	var assets assetstore.Store
	s3Store, err := assetstore.NewS3StoreFromEnv(context.Background())
	if err != nil {
		slog.Error("Failed to initialize asset storage", "error", err)
		os.Exit(1)
	}
	if s3Store != nil {
		assets = s3Store
	} else {
		slog.Warn("ASSET_BUCKET not set, storing images in memory")
		assets = assetstore.NewMemoryStore()
	}

	authMiddleware := middleware.NewAuthMiddleware(tokens, users)
	apiServer := handlers.NewAPIServer(catalog, isolates, users, policy, assets, authMiddleware)

	// Setup routes
	mux := http.NewServeMux()
	apiServer.SetupRoutes(mux)

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","service":"isolate-api","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
	})

	// Apply CORS and metrics middleware
	handler := middleware.NewCORSMiddleware()(middleware.NewMetricsMiddleware()(mux))

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	addr := ":" + port
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Isolate API server starting", "port", port, "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down isolate API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Isolate API server exited")
}
