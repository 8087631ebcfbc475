// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Command candelora runs the storefront server: public catalog, cart and
// checkout, and the admin back office, backed by PostgreSQL, Valkey and
// optional S3-compatible object storage.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"candelora/internal/cache"
	"candelora/internal/cart"
	"candelora/internal/checkout"
	"candelora/internal/config"
	"candelora/internal/database"
	"candelora/internal/handlers"
	"candelora/internal/render"
	"candelora/internal/router"
	"candelora/internal/session"
	"candelora/internal/storage"
	"candelora/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("database migrate failed", "error", err)
		os.Exit(1)
	}

	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("database seed failed", "error", err)
			os.Exit(1)
		}
	}

	valkey, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("valkey connect failed", "error", err)
		os.Exit(1)
	}
	defer valkey.Close()

	sessions := session.NewStore(valkey, !cfg.IsDev())
	pages := cache.NewPageCache(valkey, cache.DefaultPageTTL)

	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("storage init failed", "error", err)
		os.Exit(1)
	}
	if storageClient == nil {
		slog.Warn("object storage not configured, image uploads disabled")
	}

	renderer, err := render.New()
	if err != nil {
		slog.Error("template parsing failed", "error", err)
		os.Exit(1)
	}

	categories := store.NewCategoryStore(db)
	products := store.NewProductStore(db)
	reviews := store.NewReviewStore(db)
	orders := store.NewOrderStore(db)
	users := store.NewUserStore(db)
	contacts := store.NewContactStore(db)

	pricer := cart.NewPricer(products)
	converter := checkout.NewConverter(pricer, orders)

	handler := router.New(router.Deps{
		Sessions: sessions,
		Public:   handlers.NewPublicHandlers(renderer, categories, products, reviews, contacts, pages),
		Cart:     handlers.NewCartHandlers(renderer, sessions, categories, products, orders, pricer, converter),
		Auth:     handlers.NewAuthHandlers(renderer, sessions, users),
		Admin:    handlers.NewAdminHandlers(renderer, products, categories, orders, users, contacts, pages, storageClient),
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", cfg.Addr(), "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("server stopped")
}
