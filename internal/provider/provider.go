// Package provider implements the HTTP client for the upstream transit
// data feed: five reference endpoints plus live vehicle positions.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nanolookc/transport-map/internal/models"
)

// Resource names exposed by the provider.
const (
	ResourceRoutes    = "routes"
	ResourceTrips     = "trips"
	ResourceStops     = "stops"
	ResourceStopTimes = "stop_times"
	ResourceShapes    = "shapes"
	ResourceVehicles  = "vehicles"
)

// KnownResource reports whether name is a resource the provider serves.
func KnownResource(name string) bool {
	switch name {
	case ResourceRoutes, ResourceTrips, ResourceStops, ResourceStopTimes, ResourceShapes, ResourceVehicles:
		return true
	}
	return false
}

// Client fetches reference and live data from the provider feed.
type Client struct {
	baseURL    string
	apiKey     string
	agencyID   string
	httpClient *http.Client
}

// NewClient creates a provider client. The API key and agency ID are sent
// as fixed headers on every request.
func NewClient(baseURL, apiKey, agencyID string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		agencyID:   agencyID,
		httpClient: &http.Client{},
	}
}

// Fetch performs a GET against the named resource and returns the raw
// response body. Any non-2xx status is a hard failure.
func (c *Client) Fetch(ctx context.Context, resource string) ([]byte, error) {
	url := c.baseURL + "/" + resource
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Agency-Id", c.agencyID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}

func fetchJSON[T any](ctx context.Context, c *Client, resource string) ([]T, error) {
	data, err := c.Fetch(ctx, resource)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s feed: %w", resource, err)
	}
	return out, nil
}

// Routes fetches the full route list.
func (c *Client) Routes(ctx context.Context) ([]models.Route, error) {
	return fetchJSON[models.Route](ctx, c, ResourceRoutes)
}

// Trips fetches the full trip list.
func (c *Client) Trips(ctx context.Context) ([]models.Trip, error) {
	return fetchJSON[models.Trip](ctx, c, ResourceTrips)
}

// Stops fetches the full stop list.
func (c *Client) Stops(ctx context.Context) ([]models.Stop, error) {
	return fetchJSON[models.Stop](ctx, c, ResourceStops)
}

// StopTimes fetches the full stop-time list.
func (c *Client) StopTimes(ctx context.Context) ([]models.StopTime, error) {
	return fetchJSON[models.StopTime](ctx, c, ResourceStopTimes)
}

// Shapes fetches the full shape-point list.
func (c *Client) Shapes(ctx context.Context) ([]models.ShapePoint, error) {
	return fetchJSON[models.ShapePoint](ctx, c, ResourceShapes)
}

// Vehicles fetches the current live vehicle positions.
func (c *Client) Vehicles(ctx context.Context) ([]models.VehiclePosition, error) {
	return fetchJSON[models.VehiclePosition](ctx, c, ResourceVehicles)
}
