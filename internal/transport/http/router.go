package http

import (
	"net/http"
	"time"

	"github.com/complaints-api/internal/application/auth"
	"github.com/complaints-api/internal/application/complaint"
	"github.com/complaints-api/internal/application/user"
	"github.com/complaints-api/internal/config"
	"github.com/complaints-api/internal/domain"
	"github.com/complaints-api/internal/transport/http/handler"
	appmiddleware "github.com/complaints-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handler.ExposeInternalErrors = !cfg.IsProduction()

	authMw := appmiddleware.Auth(deps.JWTProvider, deps.ProfileRepo)

	// Credential endpoints get a tight cap: 10 attempts per 15 minutes per IP.
	// Each step of the login flow carries its own bucket, so OTP submissions
	// never drain the credential-step budget.
	credentialRL := appmiddleware.NewRateLimiter(rate.Every(90*time.Second), 10)
	otpRL := appmiddleware.NewRateLimiter(rate.Every(90*time.Second), 10)
	resetRL := appmiddleware.NewRateLimiter(rate.Every(90*time.Second), 10)
	// The general limiter only trips on floods.
	generalRL := appmiddleware.NewRateLimiter(rate.Limit(20), 40)
	r.Use(generalRL.Limit)

	authSvc := auth.NewService(auth.ServiceDeps{
		ProfileRepo: deps.ProfileRepo,
		OTPStore:    deps.OTPStore,
		Mailer:      deps.Mailer,
		Tokens:      deps.JWTProvider,
		ResetURL:    cfg.FrontendURL,
	})
	complaintSvc := complaint.NewService(complaint.ServiceDeps{
		ComplaintRepo: deps.ComplaintRepo,
		ActivityRepo:  deps.ActivityRepo,
		EvidenceStore: deps.S3Store,
		Events:        deps.Events,
		Logger:        deps.Logger,
	})
	userSvc := user.NewService(deps.ProfileRepo, deps.JWTProvider)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, deps.JWTProvider.SessionTTL(), cfg.IsProduction())
	complaintH := handler.NewComplaintHandler(complaintSvc)
	userH := handler.NewUserHandler(userSvc)
	resetH := handler.NewResetHandler(authSvc)

	// ── Public routes (no auth) ──────────────────────────────────────────
	r.Get("/healthz", healthH.Live)
	r.Method(http.MethodGet, "/metrics", appmiddleware.MetricsHandler())

	r.With(credentialRL.Limit).Post("/auth/signup", authH.Signup)
	r.With(credentialRL.Limit).Post("/auth/login", authH.Login)
	r.With(otpRL.Limit).Post("/auth/verify-otp", authH.VerifyOTP)
	r.Post("/auth/verify", authH.Verify)
	r.With(resetRL.Limit).Post("/reset/reset-password", resetH.ResetPassword)
	r.With(resetRL.Limit).Post("/reset/change-password", resetH.ChangePassword)

	// ── Authenticated routes ─────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(authMw)

		r.Get("/complaints/all", complaintH.List)
		r.Post("/complaints", complaintH.ListOwned)
		r.Post("/complaints/comp", complaintH.Create)
		r.Get("/complaints/{id}", complaintH.Get)
		r.Patch("/complaints/{id}", complaintH.Update)
		r.Delete("/complaints/{id}", complaintH.Delete)
		r.Post("/complaints/{id}/comments", complaintH.AddComment)
		r.Get("/complaints/{id}/activity", complaintH.Activity)
		r.Get("/complaints/{id}/evidence", complaintH.Evidence)

		r.Get("/users", userH.Managers)
		r.Post("/users/gettinguserid", userH.UserID)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

			r.Post("/auth/create-manager", authH.CreateManager)
			r.Post("/users/delete", userH.Delete)
		})
	})

	return r
}
