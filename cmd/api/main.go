package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/expense-tracker/internal/config"
	"github.com/crucial707/expense-tracker/internal/db"
	"github.com/crucial707/expense-tracker/internal/middleware"
	"github.com/crucial707/expense-tracker/internal/scheduler"
)

const (
	shutdownTimeout = 10 * time.Second
	limiterMaxIdle  = 30 * time.Minute
)

func main() {
	cfg := config.Load()
	setupLogger(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func setupLogger(format string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func run(ctx context.Context, cfg config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Connect to database FIRST
	database, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		return err
	}
	defer database.Close()
	slog.Info("connected to database")

	if cfg.RunMigrations {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			return err
		}
		slog.Info("migrations applied")
	}

	authLimiter := middleware.AuthRateLimiter()

	sched, err := scheduler.New(
		scheduler.Job{
			Name: "prune-auth-ratelimit",
			Spec: "@every 10m",
			Run: func(context.Context) {
				if n := authLimiter.Prune(limiterMaxIdle); n > 0 {
					slog.Info("pruned idle rate limit buckets", "removed", n, "remaining", authLimiter.Len())
				}
			},
		},
		scheduler.Job{
			Name: "db-pool-stats",
			Spec: "@every 5m",
			Run: func(context.Context) {
				s := database.Stats()
				slog.Info("db pool", "open", s.OpenConnections, "in_use", s.InUse, "idle", s.Idle, "wait_count", s.WaitCount)
			},
		},
	)
	if err != nil {
		return err
	}
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := sched.Run(ctx); err != nil {
			slog.Error("scheduler", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(database, cfg, authLimiter),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr, "tls", cfg.TLSEnabled(), "env", cfg.Env)
		var err error
		if cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	err = srv.Shutdown(shutdownCtx)

	cancel()
	<-schedDone
	return err
}
