// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/codr1/courtbook/internal/api"
	"github.com/codr1/courtbook/internal/api/availability"
	"github.com/codr1/courtbook/internal/api/cancellationcutoff"
	"github.com/codr1/courtbook/internal/api/reservations"
	"github.com/codr1/courtbook/internal/api/schedulewindows"
	"github.com/codr1/courtbook/internal/config"
	"github.com/codr1/courtbook/internal/ratelimit"
)

func newServer(cfg *config.Config, svc *services) *http.Server {
	router := http.NewServeMux()

	availability.InitHandlers(svc.resolver)
	schedulewindows.InitHandlers(svc.windows, svc.catalog)
	cancellationcutoff.InitHandlers(svc.cutoffs, svc.catalog)
	reservations.InitHandlers(svc.coordinator)
	reservations.InitCalendar(svc.resolver)

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithAuth,
		api.WithRequestID,
		api.WithContentType,
	)

	// Register routes
	var writeLimits []func(http.Handler) http.Handler
	if svc.limiter != nil {
		writeLimits = append(writeLimits, svc.limiter.Middleware)
	}
	registerRoutes(router, writeLimits...)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func newLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(&ratelimit.Config{
		Window:     cfg.RateLimit.Window,
		MaxPerUser: cfg.RateLimit.MaxPerUser,
		MaxPerIP:   cfg.RateLimit.MaxPerIP,
		Cooldown:   cfg.RateLimit.Cooldown,
		TrustProxy: cfg.RateLimit.TrustProxy,
	})
}

func registerRoutes(mux *http.ServeMux, writeLimits ...func(http.Handler) http.Handler) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	availability.RegisterRoutes(mux)
	schedulewindows.RegisterRoutes(mux)
	cancellationcutoff.RegisterRoutes(mux)
	reservations.RegisterRoutes(mux, writeLimits...)
}
