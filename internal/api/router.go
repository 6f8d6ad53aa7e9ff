package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hugh/go-crm/internal/account"
	"github.com/hugh/go-crm/internal/api/handlers"
	"github.com/hugh/go-crm/internal/api/middleware"
	"github.com/hugh/go-crm/internal/crm"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/redis/go-redis/v9"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             handlers.Pinger
	Redis          *redis.Client
	Logger         *slog.Logger
	Account        *account.Service
	Clients        *crm.Clients
	Contacts       *crm.Contacts
	Reports        *crm.Reports
	Activities     handlers.ActivityLister
	AllowedOrigins []string // CORS allowed origins
	RateLimiter    *middleware.RateLimiter
	Cookie         handlers.CookieOptions
	MaxUploadBytes int64
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	// CORS - restrict to configured origins, or allow localhost in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.CSRFHeader, "X-Auth-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	accountHandler := handlers.NewAccountHandler(cfg.Account, cfg.Cookie, cfg.Logger)
	clientHandler := handlers.NewClientHandler(cfg.Clients, cfg.MaxUploadBytes, cfg.Logger)
	contactHandler := handlers.NewContactHandler(cfg.Contacts, cfg.Logger)
	reportHandler := handlers.NewReportHandler(cfg.Reports, cfg.MaxUploadBytes, cfg.Logger)
	activityHandler := handlers.NewActivityHandler(cfg.Activities, cfg.Logger)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// authenticated checks the session, then CSRF, then the per-user budget
	authenticated := func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Account))
		r.Use(middleware.CSRF)
		if cfg.RateLimiter != nil {
			r.Use(middleware.RateLimitByUser(cfg.RateLimiter))
		}
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/account", func(r chi.Router) {
			// Public account endpoints
			r.Post("/setup", accountHandler.Setup)
			r.Get("/invites/{inviteID}", accountHandler.GetInvite)
			r.Post("/accept-invite/{inviteID}", accountHandler.AcceptInvite)
			r.Post("/login", accountHandler.Login)
			r.Post("/forgot-password", accountHandler.ForgotPassword)
			r.Post("/verify-otp", accountHandler.VerifyOTP)
			r.Post("/reset-password", accountHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				authenticated(r)

				r.Get("/", accountHandler.Me)
				r.Put("/", accountHandler.UpdateInfo)
				r.Put("/update-password", accountHandler.UpdatePassword)
				r.Post("/logout", accountHandler.Logout)
				r.Get("/users", accountHandler.ListUsers)
				r.Get("/users/{userID}", accountHandler.GetUser)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(models.RoleSuperAdmin, models.RoleAdmin))
					r.Post("/send-invite", accountHandler.SendInvite)
					r.Post("/resend-invite/{inviteID}", accountHandler.ResendInvite)
					r.Get("/invites", accountHandler.ListInvites)
					r.Delete("/users/{userID}", accountHandler.DeactivateUser)
				})

				r.With(middleware.RequireRole(models.RoleSuperAdmin)).
					Put("/users/{userID}/admin", accountHandler.MakeAdmin)
			})
		})

		// Protected CRM routes
		r.Group(func(r chi.Router) {
			authenticated(r)

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", clientHandler.List)
				r.Post("/", clientHandler.Create)
				r.Get("/{id}", clientHandler.Get)
				r.Put("/{id}", clientHandler.Update)
				r.Delete("/{id}", clientHandler.Delete)
				r.Put("/{id}/logo", clientHandler.UploadLogo)
			})

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", contactHandler.List)
				r.Post("/", contactHandler.Create)
				r.Get("/{id}", contactHandler.Get)
				r.Put("/{id}", contactHandler.Update)
				r.Delete("/{id}", contactHandler.Delete)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/", reportHandler.List)
				r.Post("/", reportHandler.Create)
				r.Get("/{id}", reportHandler.Get)
				r.Put("/{id}", reportHandler.Update)
				r.Delete("/{id}", reportHandler.Delete)
				r.Post("/{id}/files", reportHandler.AddFile)
				r.Delete("/{id}/files/{fileID}", reportHandler.DeleteFile)
			})

			r.Get("/activities", activityHandler.List)
		})
	})

	// Unmatched routes answer in JSON like the rest of the API
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not found"}` + "\n"))
	})

	return &Router{r}
}
