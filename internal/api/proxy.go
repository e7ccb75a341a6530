package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/nanolookc/transport-map/internal/models"
	"github.com/nanolookc/transport-map/internal/provider"
)

type vehiclesResponse struct {
	FetchedAt time.Time                `json:"fetchedAt"`
	Vehicles  []models.VehiclePosition `json:"vehicles"`
}

// handleProxy serves provider resources. Vehicles come from the latest
// poll cycle when one has succeeded; everything else is passed through.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	resource := mux.Vars(r)["resource"]
	if !provider.KnownResource(resource) {
		s.sendError(w, http.StatusNotFound, "unknown resource: "+resource)
		return
	}

	if resource == provider.ResourceVehicles {
		if vehicles, fetchedAt, ok := s.engine.Vehicles(); ok {
			s.sendJSON(w, vehiclesResponse{FetchedAt: fetchedAt, Vehicles: vehicles})
			return
		}
		// No poll cycle has succeeded yet; fetch fresh.
		fetchedAt := time.Now()
		vehicles, err := s.provider.Vehicles(r.Context())
		if err != nil {
			s.sendError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.sendJSON(w, vehiclesResponse{FetchedAt: fetchedAt, Vehicles: vehicles})
		return
	}

	data, err := s.provider.Fetch(r.Context(), resource)
	if err != nil {
		s.sendError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
