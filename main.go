package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Cybeaster/BlogWebsite/internal/auth"
	"github.com/Cybeaster/BlogWebsite/internal/config"
	"github.com/Cybeaster/BlogWebsite/internal/logger"
	"github.com/Cybeaster/BlogWebsite/internal/server"
	"github.com/Cybeaster/BlogWebsite/internal/store"
	"github.com/Cybeaster/BlogWebsite/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logg := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer func() { _ = logg.Sync() }()

	if cfg.UsingDevPassword {
		logg.Warn("ADMIN_PASSWORD not set, using the development default; never deploy like this")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []store.Option{store.WithLogger(logg)}
	if cfg.CacheListings {
		opts = append(opts, store.WithListingCache())
	}
	posts := store.NewStore(cfg.ContentDir, opts...)

	if cfg.CacheListings && cfg.WatchContent {
		go func() {
			if err := posts.Watch(ctx); err != nil {
				logg.Error("content watcher stopped", zap.Error(err))
			}
		}()
	}

	views, err := web.NewRenderer(cfg.SiteTitle)
	if err != nil {
		logg.Fatal("parse templates failed", zap.Error(err))
	}

	router := server.NewRouter(server.Deps{
		Store:              posts,
		Gate:               auth.NewGate(cfg.AdminPassword, cfg.IsProduction()),
		Views:              views,
		Logger:             logg,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
		LoginRateLimit:     cfg.LoginRateLimit,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     zap.NewStdLog(logg),
	}

	go func() {
		logg.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("content_dir", posts.Dir()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown error", zap.Error(err))
	}
}
