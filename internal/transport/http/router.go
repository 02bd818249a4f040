package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-email-otp/internal/config"
	"github.com/go-email-otp/internal/transport/http/handler"
	appmiddleware "github.com/go-email-otp/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Master-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — generic hygiene on the public surface.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	masterMw := appmiddleware.MasterKey(cfg.MasterKey)

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOTPHandler(deps.OTPService, deps.TokenSigner)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.Route("/auth/otp", func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/challenge", otpH.Challenge)
			r.With(masterMw).Post("/verify", otpH.Verify)
		})
	})

	return r
}
