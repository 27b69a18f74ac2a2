package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilmhub/coinhub/internal/config"
	"github.com/ilmhub/coinhub/internal/database"
	"github.com/ilmhub/coinhub/internal/ilmhub"
	"github.com/ilmhub/coinhub/internal/logging"
	"github.com/ilmhub/coinhub/internal/server"
	"github.com/ilmhub/coinhub/internal/store"
	"github.com/ilmhub/coinhub/internal/vault"
)

func main() {
	env, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(env.LogLevel)

	db, err := database.Open(env.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	salt, err := store.NewSettingsStore(db).VaultSalt()
	if err != nil {
		slog.Error("failed to load vault salt", "error", err)
		os.Exit(1)
	}
	v, err := vault.New(env.Secret, salt)
	if err != nil {
		slog.Error("failed to init vault", "error", err)
		os.Exit(1)
	}

	client := ilmhub.NewClient(ilmhub.Config{
		BaseURL: env.APIURL,
		Timeout: env.APITimeout,
	}, logger.With("component", "ilmhub"))

	srv := server.New(db, client, v, server.Options{
		SessionTTL:     env.SessionTTL,
		AllowedOrigins: env.AllowedOrigins,
	}, logger)

	// No WriteTimeout; /ws connections are long-lived.
	httpServer := &http.Server{
		Addr:              ":" + env.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ids, err := srv.SessionStore().DeleteExpired()
				if err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if len(ids) > 0 {
					for _, id := range ids {
						srv.Registry().Drop(id)
					}
					slog.Info("cleaned up expired sessions", "count", len(ids))
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("coinhub starting", "addr", ":"+env.Port, "upstream", env.APIURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
