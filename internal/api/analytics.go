package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/nanolookc/transport-map/internal/analytics"
)

// handleStopAnalytics serves the 7-day observed/predicted arrival view
// for one stop.
func (s *Server) handleStopAnalytics(w http.ResponseWriter, r *http.Request) {
	stopID, err := strconv.ParseInt(mux.Vars(r)["stopId"], 10, 64)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid stop id")
		return
	}

	report, err := s.analytics.StopReport(r.Context(), stopID, time.Now())
	if err != nil {
		if errors.Is(err, analytics.ErrUnknownStop) {
			s.sendError(w, http.StatusNotFound, "unknown stop")
			return
		}
		log.Printf("Stop analytics query failed: %v", err)
		s.sendError(w, http.StatusInternalServerError, "analytics query failed")
		return
	}

	s.sendJSON(w, report)
}

type routeStatsResponse struct {
	RouteID int64                 `json:"routeId"`
	Stats   *analytics.RouteStats `json:"stats"`
}

// handleRouteAnalytics serves first-seen-of-day percentiles for a route.
// Stats is null when the route has no recorded days.
func (s *Server) handleRouteAnalytics(w http.ResponseWriter, r *http.Request) {
	routeID, err := strconv.ParseInt(mux.Vars(r)["routeId"], 10, 64)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid route id")
		return
	}

	stats, err := s.analytics.RouteStats(r.Context(), routeID)
	if err != nil {
		log.Printf("Route analytics query failed: %v", err)
		s.sendError(w, http.StatusInternalServerError, "analytics query failed")
		return
	}

	s.sendJSON(w, routeStatsResponse{RouteID: routeID, Stats: stats})
}
