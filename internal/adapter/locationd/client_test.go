package locationd_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/location-reminder-service/internal/adapter/locationd"
	"github.com/couchcryptid/location-reminder-service/internal/geofence"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(t *testing.T, handler http.Handler) *locationd.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return locationd.NewClient(srv.URL, 2*time.Second, discardLogger())
}

func TestRegister_SendsGeofenceDefinition(t *testing.T) {
	var got map[string]any
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/geofences", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))

	err := client.Register(context.Background(), "rem-1", 37.78, -122.41, 100, true)

	require.NoError(t, err)
	assert.Equal(t, "rem-1", got["id"])
	assert.Equal(t, 37.78, got["latitude"])
	assert.Equal(t, -122.41, got["longitude"])
	assert.Equal(t, 100.0, got["radius_meters"])
	assert.Equal(t, true, got["trigger_on_enter"])
}

func TestRegister_SurfacesDaemonError(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": "too many geofences", "code": 1001,
		})
	}))

	err := client.Register(context.Background(), "rem-1", 37.78, -122.41, 100, true)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many geofences")
}

func TestUnregister_DeletesByID(t *testing.T) {
	var path, method string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		method = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, client.Unregister(context.Background(), "rem-1"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/v1/geofences/rem-1", path)
}

func TestGranted_ReadsPermissionState(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/permissions/location.foreground", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]bool{"granted": true})
	}))

	granted, err := client.Granted(context.Background(), geofence.CapabilityForegroundLocation)

	require.NoError(t, err)
	assert.True(t, granted)
}

func TestRequest_ReturnsPerCapabilityResults(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/permissions", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": map[string]bool{
				"location.foreground": true,
				"location.background": false,
			},
		})
	}))

	results, err := client.Request(context.Background(), []geofence.Capability{
		geofence.CapabilityForegroundLocation,
		geofence.CapabilityBackgroundLocation,
	})

	require.NoError(t, err)
	assert.True(t, results[geofence.CapabilityForegroundLocation])
	assert.False(t, results[geofence.CapabilityBackgroundLocation])
}

func TestEnabledAndRequestEnable(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/status":
			_ = json.NewEncoder(w).Encode(map[string]bool{"enabled": false})
		case "/v1/status/enable":
			_ = json.NewEncoder(w).Encode(map[string]bool{"resolved": true})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	enabled, err := client.Enabled(context.Background())
	require.NoError(t, err)
	assert.False(t, enabled)

	resolved, err := client.RequestEnable(context.Background())
	require.NoError(t, err)
	assert.True(t, resolved)
}

func TestClient_UnreachableDaemon(t *testing.T) {
	client := locationd.NewClient("http://127.0.0.1:1", 200*time.Millisecond, discardLogger())

	_, err := client.Enabled(context.Background())

	assert.Error(t, err)
}
