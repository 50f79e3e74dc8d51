// recrutement-backoffice-service
//
// Back-office of the recruitment agency: candidates, clients, mandates, the
// application pipeline and the applications received from the website.
// Exposes a REST API for the back-office UI and a gRPC search service:
//   - searchCandidates(query, filters)     : free-text + category search
//   - moveApplication(applicationId, stage): pipeline state machine
//   - importRawApplication(id)             : website application → candidate
//
// On placee: marks the mandate pourvu and the candidate place.
// Publishes EVENT_RECORD_CHANGED / EVENT_APPLICATION_MOVED to Redis when configured.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"recrutement/backoffice-service/internal/backoffice"
	"recrutement/backoffice-service/internal/config"
	"recrutement/backoffice-service/internal/db"
	"recrutement/backoffice-service/internal/events"
	"recrutement/backoffice-service/internal/grpcserver"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "[backoffice-service] .env: %v\n", err)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[backoffice-service] Config error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	vocab, err := config.LoadVocabulary(cfg.VocabularyFile)
	if err != nil {
		fatal("vocabulary", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Store backend ───────────────────────────────────────────────────────
	var stores backoffice.Stores
	switch cfg.Backend {
	case config.BackendPostgres:
		slog.Info("connecting to PostgreSQL")
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			fatal("postgres", err)
		}
		defer pool.Close()
		stores = backoffice.PostgresStores(pool)
		slog.Info("PostgreSQL connected")
	case config.BackendSupabase:
		client, err := db.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			fatal("supabase", err)
		}
		stores = backoffice.SupabaseStores(client)
		slog.Info("using Supabase REST backend", "url", cfg.SupabaseURL)
	case config.BackendMemory:
		stores = backoffice.MemoryStores()
		slog.Warn("using in-memory store: data is lost on restart")
	}

	// ── Redis (optional) ────────────────────────────────────────────────────
	var pub events.Publisher = events.Nop{}
	if cfg.RedisURL != "" {
		slog.Info("connecting to Redis")
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			fatal("redis", err)
		}
		defer rdb.Close()
		pub = events.NewRedisPublisher(rdb)
		slog.Info("Redis connected")
	} else {
		slog.Info("REDIS_URL not set: change events disabled")
	}

	svc := backoffice.NewService(stores, pub, vocab)

	// ── HTTP server ──────────────────────────────────────────────────────────
	h := backoffice.NewHandler(svc)
	srv := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.Port),
		Handler: h.Routes(func(mux *http.ServeMux) {
			mux.HandleFunc("GET /health", healthHandler)
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		slog.Info("HTTP listening", "version", version, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal("HTTP server", err)
		}
	}()

	// ── gRPC server ──────────────────────────────────────────────────────────
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		fatal("gRPC listen", err)
	}
	gsrv := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcserver.UnaryRequestID))
	grpcserver.Register(gsrv, grpcserver.NewServer(svc))

	go func() {
		slog.Info("gRPC listening", "port", cfg.GRPCPort)
		if err := gsrv.Serve(lis); err != nil {
			fatal("gRPC server", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown", "err", err)
	}
	gsrv.GracefulStop()
	slog.Info("stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler).With("service", "backoffice-service")
}

func fatal(what string, err error) {
	slog.Error(what, "err", err)
	os.Exit(1)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "backoffice-service",
		"version": version,
	})
}
