package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"connect-four-engine/internal/database"
	"connect-four-engine/internal/kafka"
)

type consumerStats interface {
	GetStats() kafka.ConsumerStats
}

// MetricsServer exposes the consumer's aggregated search metrics over HTTP.
type MetricsServer struct {
	consumer   consumerStats
	aggregator *kafka.MetricsAggregator
	server     *http.Server
	router     *mux.Router
}

type MetricsResponse struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	Error     string      `json:"error,omitempty"`
}

func NewMetricsServer(consumer consumerStats, aggregator *kafka.MetricsAggregator, addr string) *MetricsServer {
	router := mux.NewRouter()

	ms := &MetricsServer{
		consumer:   consumer,
		aggregator: aggregator,
		router:     router,
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	ms.setupRoutes()
	return ms
}

func (ms *MetricsServer) Start() error {
	log.Info().Str("addr", ms.server.Addr).Msg("Starting metrics API server")
	return ms.server.ListenAndServe()
}

func (ms *MetricsServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return ms.server.Shutdown(ctx)
}

func (ms *MetricsServer) setupRoutes() {
	ms.router.Use(ms.corsMiddleware)

	ms.router.HandleFunc("/health", ms.handleHealth).Methods(http.MethodGet)
	ms.router.HandleFunc("/api/consumer/stats", ms.handleConsumerStats).Methods(http.MethodGet)
	ms.router.HandleFunc("/api/metrics/games", ms.handleGameMetrics).Methods(http.MethodGet)
	ms.router.HandleFunc("/api/metrics/strategies", ms.handleStrategies).Methods(http.MethodGet)
	ms.router.HandleFunc("/api/metrics/strategies/{strategy}", ms.handleStrategy).Methods(http.MethodGet)
}

func (ms *MetricsServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (ms *MetricsServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := ms.consumer.GetStats()
	ms.writeResponse(w, http.StatusOK, map[string]interface{}{
		"status":             "healthy",
		"uptime":             stats.Uptime.String(),
		"messages_processed": stats.MessagesProcessed,
		"messages_errored":   stats.MessagesErrored,
		"last_message":       stats.LastMessageTime,
	})
}

func (ms *MetricsServer) handleConsumerStats(w http.ResponseWriter, r *http.Request) {
	ms.writeResponse(w, http.StatusOK, ms.consumer.GetStats())
}

func (ms *MetricsServer) handleGameMetrics(w http.ResponseWriter, r *http.Request) {
	ms.writeResponse(w, http.StatusOK, ms.aggregator.GetGameMetrics())
}

// handleStrategies lists lifetime metrics for every strategy and depth
// seen so far.
func (ms *MetricsServer) handleStrategies(w http.ResponseWriter, r *http.Request) {
	ms.writeResponse(w, http.StatusOK, ms.aggregator.Snapshot())
}

// handleStrategy filters by strategy and, with ?depth=N, by depth.
func (ms *MetricsServer) handleStrategy(w http.ResponseWriter, r *http.Request) {
	strategy := mux.Vars(r)["strategy"]

	depth := -1
	if s := r.URL.Query().Get("depth"); s != "" {
		d, err := strconv.Atoi(s)
		if err != nil || d < 0 {
			ms.writeError(w, http.StatusBadRequest, "depth must be a non-negative integer")
			return
		}
		depth = d
	}

	var matched []database.SearchMetrics
	for _, m := range ms.aggregator.Snapshot() {
		if m.Strategy == strategy && (depth < 0 || m.Depth == depth) {
			matched = append(matched, m)
		}
	}
	if len(matched) == 0 {
		ms.writeError(w, http.StatusNotFound, "no metrics for "+strategy)
		return
	}
	ms.writeResponse(w, http.StatusOK, matched)
}

func (ms *MetricsServer) writeResponse(w http.ResponseWriter, status int, data interface{}) {
	response := MetricsResponse{
		Status:    "success",
		Timestamp: time.Now(),
		Data:      data,
	}

	if status >= 400 {
		response.Status = "error"
		if errMsg, ok := data.(string); ok {
			response.Error = errMsg
			response.Data = nil
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Warn().Err(err).Msg("Error encoding response")
	}
}

func (ms *MetricsServer) writeError(w http.ResponseWriter, status int, message string) {
	ms.writeResponse(w, status, message)
}
