package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"connect-four-engine/internal/config"
	"connect-four-engine/internal/handlers"
)

type Server struct {
	httpServer *http.Server
	config     *config.Config
}

// Handlers groups the endpoints the router serves. Leaderboard may be nil
// when no database is configured.
type Handlers struct {
	Game        *handlers.GameHandler
	Search      *handlers.SearchHandler
	Leaderboard *handlers.LeaderboardHandler
}

func NewServer(cfg *config.Config, h Handlers) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      NewRouter(h),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		config: cfg,
	}
}

func NewRouter(h Handlers) *mux.Router {
	router := mux.NewRouter()

	if h.Game != nil {
		router.HandleFunc("/ws", h.Game.HandleWebSocket)
	}

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/search", h.Search.Search).Methods(http.MethodPost)
	api.HandleFunc("/strategies", h.Search.Strategies).Methods(http.MethodGet)
	if h.Leaderboard != nil {
		api.HandleFunc("/leaderboard", h.Leaderboard.GetLeaderboard).Methods(http.MethodGet)
		api.HandleFunc("/player/stats", h.Leaderboard.GetPlayerStats).Methods(http.MethodGet)
	}

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	router.Use(corsMiddleware)
	router.Use(loggingMiddleware)
	return router
}

func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
