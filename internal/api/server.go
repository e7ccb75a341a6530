// Package api exposes the HTTP surface: health, provider proxy and
// analytics endpoints.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nanolookc/transport-map/internal/analytics"
	"github.com/nanolookc/transport-map/internal/cache"
	"github.com/nanolookc/transport-map/internal/provider"
)

// Server represents the API server
type Server struct {
	engine    *cache.Engine
	provider  *provider.Client
	analytics *analytics.Engine
	metrics   http.Handler
}

// NewServer creates a new API server.
func NewServer(engine *cache.Engine, p *provider.Client, an *analytics.Engine, metricsHandler http.Handler) *Server {
	return &Server{
		engine:    engine,
		provider:  p,
		analytics: an,
		metrics:   metricsHandler,
	}
}

// Router creates and returns the HTTP router
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/proxy/{resource}", s.handleProxy).Methods("GET")
	r.HandleFunc("/analytics/stop/{stopId}", s.handleStopAnalytics).Methods("GET")
	r.HandleFunc("/analytics/route/{routeId}", s.handleRouteAnalytics).Methods("GET")
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods("GET")
	}

	return s.corsMiddleware(r)
}

// corsMiddleware adds CORS headers to all responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, map[string]bool{"ok": true})
}
