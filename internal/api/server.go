// Package api provides the local HTTP server for Exhale.
// The rendering layer polls it for progression state and posts user actions.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/exhale-app/exhale/internal/app/engagement"
)

// Pinger reports storage health.
type Pinger interface {
	Ping() error
}

// Server is the Exhale HTTP API server.
type Server struct {
	store          *engagement.Store
	log            *zap.Logger
	db             Pinger // nil when running without durable storage
	metricsEnabled bool
	corsOrigins    []string
	version        string
}

// NewServer creates a new API server over store.
func NewServer(store *engagement.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{store: store, log: log.Named("api"), corsOrigins: []string{"*"}}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetStorage lets /health report the snapshot database.
func (s *Server) SetStorage(db Pinger) { s.db = db }

// SetCORSOrigins restricts Access-Control-Allow-Origin. Empty means "*".
func (s *Server) SetCORSOrigins(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.corsOrigins = origins
}

// SetVersion sets the version reported by /health.
func (s *Server) SetVersion(v string) { s.version = v }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.requestLogger)
	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/progress", s.handleProgress)
		r.Get("/streak", s.handleStreak)
		r.Post("/activity", s.handleActivity)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/daily", s.handleDailyTasks)
			r.Post("/daily/reset", s.handleResetDaily)
			r.Post("/daily/{id}/complete", s.handleCompleteDaily)

			r.Get("/limited", s.handleLimitedTask)
			r.Post("/limited", s.handleGenerateLimited)
			r.Post("/limited/complete", s.handleCompleteLimited)
		})

		r.Get("/gift", s.handleGift)
		r.Post("/gift/claim", s.handleClaimGift)

		r.Get("/achievements", s.handleAchievements)
		r.Post("/achievements/check", s.handleCheckAchievements)
		r.Get("/milestones", s.handleMilestones)
		r.Post("/milestones/check", s.handleCheckMilestones)

		r.Get("/stats", s.handleStats)
		r.Get("/profile", s.handleProfile)
		r.Put("/profile", s.handleUpdateProfile)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok", "storage": "memory"}
	if s.version != "" {
		resp["version"] = s.version
	}
	if s.db != nil {
		resp["storage"] = "sqlite"
		if err := s.db.Ping(); err != nil {
			resp["status"] = "degraded"
			resp["error"] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "error",
		},
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(started)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// corsMiddleware adds CORS headers for the local UI.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := s.corsOrigins[0]
		if len(s.corsOrigins) > 1 {
			origin = ""
			for _, o := range s.corsOrigins {
				if o == r.Header.Get("Origin") {
					origin = o
					break
				}
			}
		}
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
