// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jkoster/courtbook/internal/api"
	"github.com/jkoster/courtbook/internal/api/authz"
	"github.com/jkoster/courtbook/internal/api/bookings"
	"github.com/jkoster/courtbook/internal/api/courts"
	"github.com/jkoster/courtbook/internal/api/reservations"
	"github.com/jkoster/courtbook/internal/api/waitlist"
	"github.com/jkoster/courtbook/internal/booking"
	"github.com/jkoster/courtbook/internal/config"
	"github.com/jkoster/courtbook/internal/db"
)

func newServer(cfg *config.Config, database *db.DB, svc *booking.Service) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		authz.WithIdentity,
		api.WithRecovery,
		api.WithRequestID,
	)

	bookings.InitHandlers(svc)
	reservations.InitHandlers(svc)
	waitlist.InitHandlers(svc)
	courts.InitHandlers(svc, database)

	registerRoutes(router)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Court catalog and availability
	mux.HandleFunc("GET /api/v1/courts", courts.HandleList)
	mux.HandleFunc("GET /api/v1/courts/{id}/slots", courts.HandleSlots)
	mux.HandleFunc("POST /api/v1/availability", courts.HandleCheckAvailability)
	mux.HandleFunc("POST /api/v1/quotes", courts.HandleQuote)

	// Bookings
	mux.HandleFunc("POST /api/v1/bookings", bookings.HandleCreate)
	mux.HandleFunc("GET /api/v1/bookings", bookings.HandleList)
	mux.HandleFunc("GET /api/v1/bookings/{id}", bookings.HandleGet)
	mux.HandleFunc("PATCH /api/v1/bookings/{id}", bookings.HandleUpdate)
	mux.HandleFunc("DELETE /api/v1/bookings/{id}", bookings.HandleCancel)

	// Soft holds
	mux.HandleFunc("POST /api/v1/reservations", reservations.HandleCreate)
	mux.HandleFunc("POST /api/v1/reservations/{id}/extend", reservations.HandleExtend)
	mux.HandleFunc("DELETE /api/v1/reservations/{id}", reservations.HandleRelease)

	// Waitlist
	mux.HandleFunc("POST /api/v1/waitlist", waitlist.HandleJoin)
	mux.HandleFunc("GET /api/v1/waitlist", waitlist.HandleList)
	mux.HandleFunc("POST /api/v1/waitlist/notify-next", waitlist.HandleNotifyNext)
	mux.HandleFunc("DELETE /api/v1/waitlist/{id}", waitlist.HandleRemove)
}
