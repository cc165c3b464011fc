package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ringflowhq/ringflow/internal/billing"
	"github.com/ringflowhq/ringflow/internal/compiler"
	"github.com/ringflowhq/ringflow/internal/db"
	"github.com/ringflowhq/ringflow/internal/editor"
	"github.com/ringflowhq/ringflow/internal/flow"
	"github.com/ringflowhq/ringflow/internal/numbers"
	"github.com/ringflowhq/ringflow/internal/telephony"
)

// Config holds server configuration.
type Config struct {
	Port     int
	BaseURL  string // externally reachable URL, used in generated webhook callbacks
	AllowAll bool   // allow all CORS origins (dev mode)
}

// Server is the ringflow control-panel API server.
type Server struct {
	cfg        Config
	db         *db.DB
	flows      *flow.Store
	numbers    *numbers.Service
	numStore   *numbers.Store
	editors    *editor.Manager
	compiler   *compiler.Compiler
	router     chi.Router
	httpServer *http.Server
}

// New creates a new server with all dependencies wired.
func New(cfg Config, database *db.DB, provider telephony.Provider, entitlements *billing.Entitlements) *Server {
	flows := flow.NewStore(database)
	numStore := numbers.NewStore(database)

	s := &Server{
		cfg:      cfg,
		db:       database,
		flows:    flows,
		numStore: numStore,
		numbers:  numbers.NewService(numStore, provider, entitlements, cfg.BaseURL),
		editors:  editor.NewManager(),
		compiler: compiler.New(cfg.BaseURL),
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	flow.RegisterRoutes(r, s.flows)
	numbers.RegisterRoutes(r, s.numbers)
	editor.RegisterRoutes(r, s.editors, s.flows)
	s.registerVoiceRoutes(r)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Flows returns the flow store.
func (s *Server) Flows() *flow.Store { return s.flows }

// Numbers returns the number store.
func (s *Server) Numbers() *numbers.Store { return s.numStore }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("ringflow server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
