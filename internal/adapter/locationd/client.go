// Package locationd talks to the external geofencing daemon over its
// REST API. The daemon owns the platform geofence-monitoring primitive;
// this client only registers fences and queries permission and
// positioning state, implementing the controller's collaborator
// contracts.
package locationd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/location-reminder-service/internal/geofence"
)

// Client implements geofence.Geofencer, geofence.PermissionProvider, and
// geofence.LocationService against a locationd instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a locationd client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type registerRequest struct {
	ID             string  `json:"id"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	RadiusMeters   float64 `json:"radius_meters"`
	TriggerOnEnter bool    `json:"trigger_on_enter"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// Register asks the daemon to monitor a circular region, using the
// reminder's id as the geofence's external id. The daemon reports
// success or failure for this fence independently of event delivery.
func (c *Client) Register(ctx context.Context, id string, lat, lon, radiusMeters float64, triggerOnEnter bool) error {
	body := registerRequest{
		ID:             id,
		Latitude:       lat,
		Longitude:      lon,
		RadiusMeters:   radiusMeters,
		TriggerOnEnter: triggerOnEnter,
	}
	if err := c.post(ctx, "/v1/geofences", body, nil); err != nil {
		return err
	}
	c.logger.Debug("geofence registered", "geofence_id", id, "radius_m", radiusMeters)
	return nil
}

// Unregister removes a monitored region. Removing an unknown id is not an
// error on the daemon side.
func (c *Client) Unregister(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/v1/geofences/"+id, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, nil)
}

type permissionResponse struct {
	Granted bool `json:"granted"`
}

// Granted reports whether the host has granted the capability.
func (c *Client) Granted(ctx context.Context, capability geofence.Capability) (bool, error) {
	var resp permissionResponse
	if err := c.get(ctx, "/v1/permissions/"+string(capability), &resp); err != nil {
		return false, err
	}
	return resp.Granted, nil
}

type permissionRequest struct {
	Capabilities []geofence.Capability `json:"capabilities"`
}

type permissionResults struct {
	Results map[geofence.Capability]bool `json:"results"`
}

// Request prompts for the capabilities and blocks until the user resolves
// the prompt; the daemon holds the request open, so the ctx deadline is
// the only bound.
func (c *Client) Request(ctx context.Context, caps []geofence.Capability) (map[geofence.Capability]bool, error) {
	var resp permissionResults
	if err := c.post(ctx, "/v1/permissions", permissionRequest{Capabilities: caps}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

type statusResponse struct {
	Enabled bool `json:"enabled"`
}

// Enabled reports whether device positioning is currently on.
func (c *Client) Enabled(ctx context.Context) (bool, error) {
	var resp statusResponse
	if err := c.get(ctx, "/v1/status", &resp); err != nil {
		return false, err
	}
	return resp.Enabled, nil
}

type enableResponse struct {
	Resolved bool `json:"resolved"`
}

// RequestEnable presents the daemon's enable-positioning affordance and
// reports whether the user resolved it.
func (c *Client) RequestEnable(ctx context.Context) (bool, error) {
	var resp enableResponse
	if err := c.post(ctx, "/v1/status/enable", struct{}{}, &resp); err != nil {
		return false, err
	}
	return resp.Resolved, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("locationd request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp errorResponse
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("locationd: %s", errResp.Error)
		}
		return fmt.Errorf("locationd: status %d: %s", resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
