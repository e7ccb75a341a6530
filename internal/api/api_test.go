package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nanolookc/transport-map/internal/analytics"
	"github.com/nanolookc/transport-map/internal/cache"
	"github.com/nanolookc/transport-map/internal/models"
	"github.com/nanolookc/transport-map/internal/store"
)

func testServer(t *testing.T) (*Server, *cache.Engine, *store.Store) {
	t.Helper()

	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	engine := cache.NewEngine()
	engine.SwapReference(cache.BuildReference(
		[]models.Route{{ID: 7, ShortName: "7"}},
		[]models.Trip{{ID: "t1", RouteID: 7}},
		[]models.Stop{{ID: 42, Name: "Main St", Latitude: 39.96, Longitude: -83.0}},
		[]models.StopTime{{TripID: "t1", StopID: 42, StopSequence: 1}},
	))

	analyticsEngine := analytics.New(st, engine, time.UTC)
	return NewServer(engine, nil, analyticsEngine, nil), engine, st
}

func doRequest(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest("GET", path, nil)
	if err != nil {
		t.Fatal(err)
	}
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	server, _, _ := testServer(t)

	rr := doRequest(t, server, "/health")
	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}

	var body map[string]bool
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error parsing response: %v", err)
	}
	if !body["ok"] {
		t.Errorf("expected ok=true, got %v", body)
	}
}

func TestProxyUnknownResource(t *testing.T) {
	server, _, _ := testServer(t)

	rr := doRequest(t, server, "/proxy/bogus")
	if rr.Code != http.StatusNotFound {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusNotFound)
	}
}

func TestProxyVehiclesFromCache(t *testing.T) {
	server, engine, _ := testServer(t)

	fetchedAt := time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC)
	engine.SetVehicles([]models.VehiclePosition{
		{ID: "bus-1", RouteID: 7, TripID: "t1", Latitude: 39.96, Longitude: -83.0},
	}, fetchedAt)

	rr := doRequest(t, server, "/proxy/vehicles")
	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}

	var body struct {
		FetchedAt time.Time                `json:"fetchedAt"`
		Vehicles  []models.VehiclePosition `json:"vehicles"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error parsing response: %v", err)
	}
	if len(body.Vehicles) != 1 {
		t.Fatalf("unexpected number of vehicles: got %d want 1", len(body.Vehicles))
	}
	if body.Vehicles[0].ID != "bus-1" {
		t.Errorf("unexpected vehicle ID: got %v want bus-1", body.Vehicles[0].ID)
	}
	if !body.FetchedAt.Equal(fetchedAt) {
		t.Errorf("unexpected fetchedAt: got %v want %v", body.FetchedAt, fetchedAt)
	}
}

func TestStopAnalyticsInvalidID(t *testing.T) {
	server, _, _ := testServer(t)

	rr := doRequest(t, server, "/analytics/stop/abc")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusBadRequest)
	}
}

func TestStopAnalyticsUnknownStop(t *testing.T) {
	server, _, _ := testServer(t)

	rr := doRequest(t, server, "/analytics/stop/999")
	if rr.Code != http.StatusNotFound {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusNotFound)
	}
}

func TestStopAnalyticsReturnsReport(t *testing.T) {
	server, _, st := testServer(t)

	observed := time.Now().UTC().Add(-time.Hour)
	if err := st.InsertVisits(context.Background(), []models.StopVisit{{
		StopID:     42,
		RouteID:    7,
		TripID:     "t1",
		VehicleID:  "bus-1",
		ObservedAt: observed,
		FetchedAt:  observed,
	}}); err != nil {
		t.Fatal(err)
	}

	rr := doRequest(t, server, "/analytics/stop/42")
	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var report analytics.StopReport
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("error parsing response: %v", err)
	}
	if report.Stop == nil || report.Stop.ID != 42 {
		t.Errorf("unexpected stop in report: %+v", report.Stop)
	}
	if len(report.Routes) != 1 {
		t.Errorf("unexpected number of routes: got %d want 1", len(report.Routes))
	}
}

func TestRouteAnalyticsInvalidID(t *testing.T) {
	server, _, _ := testServer(t)

	rr := doRequest(t, server, "/analytics/route/abc")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusBadRequest)
	}
}

func TestRouteAnalyticsNoSamples(t *testing.T) {
	server, _, _ := testServer(t)

	rr := doRequest(t, server, "/analytics/route/7")
	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}

	var body struct {
		RouteID int64                 `json:"routeId"`
		Stats   *analytics.RouteStats `json:"stats"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error parsing response: %v", err)
	}
	if body.RouteID != 7 {
		t.Errorf("unexpected route ID: got %d want 7", body.RouteID)
	}
	if body.Stats != nil {
		t.Errorf("expected null stats, got %+v", body.Stats)
	}
}
