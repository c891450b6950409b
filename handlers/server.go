package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"kofi-bridge.app/cloud/internal/logger"
	"kofi-bridge.app/cloud/internal/metrics"
	"kofi-bridge.app/cloud/internal/notify"
	"kofi-bridge.app/cloud/internal/ratelimit"
	"kofi-bridge.app/cloud/storage"
)

// Version is overridden by main from the VERSION file.
var Version = "dev"

type Server struct {
	Mux            *chi.Mux
	Storage        storage.Storage
	Notifier       notify.Notifier
	MonitoredItems []string
	limiter        ratelimit.RateLimit
}

func NewHttpServer(db storage.Storage, notifier notify.Notifier, monitoredItems []string) *Server {
	mux := chi.NewRouter()

	s := &Server{
		Mux:            mux,
		Storage:        db,
		Notifier:       notifier,
		MonitoredItems: monitoredItems,
		limiter:        ratelimit.New(30, time.Minute),
	}

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	mux.Get("/", s.Home)
	mux.Get("/health", s.Health)
	mux.Post("/webhook", s.KofiWebhook)
	mux.Post("/api/v1/licenses/validate", s.ValidateLicense)

	return s
}

func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("Ko-fi webhook handler is running!")); err != nil {
		logger.Error("Failed to write response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

type HealthResponse struct {
	Status    string           `json:"status"`
	Version   string           `json:"version"`
	Timestamp time.Time        `json:"timestamp"`
	Metrics   metrics.Snapshot `json:"metrics"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now(),
		Metrics:   metrics.Current(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to encode health response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
