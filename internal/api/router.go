// Package api wires the HTTP surface: router, middleware stack and routes.
package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Priyan-git/rait-rooms/internal/api/middleware"
	"github.com/Priyan-git/rait-rooms/internal/directory"
	"github.com/Priyan-git/rait-rooms/internal/handlers"
	"github.com/Priyan-git/rait-rooms/internal/identity"
	"github.com/Priyan-git/rait-rooms/internal/netmon"
	"github.com/Priyan-git/rait-rooms/internal/roomlog"
	"github.com/Priyan-git/rait-rooms/internal/store"
)

// Deps carries everything the router needs.
type Deps struct {
	Rooms    store.RoomStore
	Redis    *store.RedisStore
	Dir      *directory.Directory
	Log      *roomlog.Log
	Identity *identity.Provider
	Monitor  *netmon.Monitor
	Logger   zerolog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024)) // 8KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(chimw.Recoverer)

	// CORS - allow all origins (anonymous clients call from anywhere)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(d.Rooms, d.Redis, d.Dir, d.Log, d.Identity, d.Monitor, d.Logger)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Post("/register", h.Register)
	r.Post("/report", h.Report)

	r.Route("/rooms", func(r chi.Router) {
		r.Get("/", h.ListRooms)
		r.Post("/{id}/rename", h.RenameRoom)
		r.Get("/{id}/messages", h.GetRoomMessages)
		r.Post("/{id}/messages", h.PostMessage)
		r.Get("/{id}/ws", h.RoomStream)
	})

	return r
}
