// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the coaching site server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"crypto/rand"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coachpress/internal/auth"
	"coachpress/internal/cache"
	"coachpress/internal/config"
	"coachpress/internal/database"
	"coachpress/internal/handlers"
	"coachpress/internal/mailer"
	"coachpress/internal/middleware"
	"coachpress/internal/render"
	"coachpress/internal/router"
	"coachpress/internal/session"
	"coachpress/internal/storage"
	"coachpress/internal/store"
	"coachpress/web"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON elsewhere.
	var logHandler slog.Handler
	if cfg.IsDev() {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(logHandler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"site", cfg.SiteURL,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (page cache + session revocation list).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Initialize data stores.
	postStore := store.NewPostStore(db)
	bookStore := store.NewBookStore(db)
	subscriberStore := store.NewSubscriberStore(db)

	operator, err := auth.NewOperator(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.AdminPassword, cfg.AdminTOTPSecret, cfg.SiteName)
	if err != nil {
		slog.Error("failed to configure operator", "error", err)
		os.Exit(1)
	}

	// Session tokens are signed with SESSION_SECRET. Development falls back
	// to a random key, so restarts sign everyone out.
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			slog.Error("failed to generate session secret", "error", err)
			os.Exit(1)
		}
		slog.Warn("SESSION_SECRET not set, using an ephemeral key")
	}
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(secret, secureCookies, session.NewValkeyRevoker(valkeyClient))

	// Connect to S3-compatible object storage (optional, uploads answer
	// 503 without it).
	var uploader handlers.Uploader
	if cfg.StorageEnabled() {
		storageClient, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		uploader = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	// Transactional email. Without an API key messages are only logged.
	var sender mailer.Sender = mailer.Noop{}
	if cfg.MailEnabled() {
		sender = mailer.New(cfg.MailBaseURL, cfg.MailAPIKey, cfg.MailFrom)
	} else {
		slog.Warn("mail API not configured, emails will be logged only")
	}
	newsletter := mailer.NewNewsletter(sender, subscriberStore, cfg.SiteName, cfg.SiteURL)

	// Full-page HTML cache in Valkey.
	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)

	renderer, err := render.New(cfg.SiteName, cfg.SiteURL, cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Create handler groups with their dependencies.
	contentHandlers := handlers.NewContent(postStore, bookStore, subscriberStore, pageCache, newsletter, uploader)
	authHandlers := handlers.NewAuth(renderer, sessionStore, operator)
	publicHandlers := handlers.NewPublic(renderer, postStore, bookStore, subscriberStore, pageCache, sender,
		operator.Email(), cfg.SiteName, cfg.SiteURL, cfg.DefaultLocale)
	adminHandlers := handlers.NewAdmin(renderer, postStore, bookStore, subscriberStore, operator)

	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		slog.Error("failed to open static assets", "error", err)
		os.Exit(1)
	}

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer loginLimiter.Stop()
	formLimiter := middleware.NewRateLimiter(20, time.Minute)
	defer formLimiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(router.Options{
		Secure:       secureCookies,
		CORSOrigins:  cfg.CORSOrigins,
		Static:       static,
		LoginLimiter: loginLimiter,
		FormLimiter:  formLimiter,
	}, sessionStore, contentHandlers, authHandlers, publicHandlers, adminHandlers)

	// Uploads of up to 15 MB need a generous read timeout.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight newsletter sends finish.
	newsletter.Wait()

	slog.Info("server stopped gracefully")
}
