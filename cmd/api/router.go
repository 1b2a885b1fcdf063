package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/crucial707/expense-tracker/internal/auth"
	"github.com/crucial707/expense-tracker/internal/config"
	"github.com/crucial707/expense-tracker/internal/handlers"
	"github.com/crucial707/expense-tracker/internal/middleware"
	"github.com/crucial707/expense-tracker/internal/repo"
	"github.com/crucial707/expense-tracker/internal/services"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newRouter wires repositories, services and handlers onto a chi router.
// authLimiter guards register/login; pass nil to get a fresh one.
func newRouter(db *sql.DB, cfg config.Config, authLimiter *middleware.IPRateLimiter) http.Handler {
	loc, err := cfg.Location()
	if err != nil {
		loc = time.Local
	}
	if authLimiter == nil {
		authLimiter = middleware.AuthRateLimiter()
	}

	// ==========================
	// Repos & services
	// ==========================
	userRepo := repo.NewUserRepo(db)
	expenseRepo := repo.NewExpenseRepo(db)

	authSvc := services.NewAuthService(userRepo, auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL()))
	expenseSvc := services.NewExpenseService(expenseRepo, loc)

	authHandler := &handlers.AuthHandler{Auth: authSvc}
	expenseHandler := &handlers.ExpenseHandler{Expenses: expenseSvc}

	// ==========================
	// Middleware
	// ==========================
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSEnabled()))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	// ==========================
	// Probes
	// ==========================
	r.Get("/", handlers.Root)
	r.Get("/health", handlers.Health)
	r.Get("/ready", handlers.Ready(db))
	r.Handle("/metrics", promhttp.Handler())

	// ==========================
	// API
	// ==========================
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Get("/categories", handlers.Categories)

		r.Route("/expenses", func(r chi.Router) {
			r.Use(middleware.Authenticate(authSvc))
			r.Post("/", expenseHandler.Create)
			r.Get("/", expenseHandler.List)
			r.Get("/summary/monthly", expenseHandler.MonthlySummary)
			r.Get("/summary/total", expenseHandler.TotalSpending)
			r.Get("/{id}", expenseHandler.Get)
			r.Delete("/{id}", expenseHandler.Delete)
		})
	})

	return r
}
