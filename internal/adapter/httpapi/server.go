// Package httpapi exposes the service's HTTP surface: liveness,
// readiness, Prometheus metrics, and the thin reminders API the
// presentation layer calls into.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/location-reminder-service/internal/domain"
	"github.com/couchcryptid/location-reminder-service/internal/geofence"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReminderSaver runs the full registration flow for a candidate.
type ReminderSaver interface {
	Save(ctx context.Context, candidate domain.Reminder) error
}

// GeofenceRemover drops the active geofence for a deleted reminder.
type GeofenceRemover interface {
	Unregister(ctx context.Context, id string) error
}

// Server exposes health, readiness, metrics, and reminder routes.
type Server struct {
	httpServer *http.Server
	saver      ReminderSaver
	source     domain.ReminderSource
	remover    GeofenceRemover
	logger     *slog.Logger
}

// NewServer creates the HTTP server and wires all routes.
func NewServer(
	addr string,
	saver ReminderSaver,
	source domain.ReminderSource,
	remover GeofenceRemover,
	ready ReadinessChecker,
	logger *slog.Logger,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		saver:   saver,
		source:  source,
		remover: remover,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/reminders", s.handleList)
	mux.HandleFunc("POST /v1/reminders", s.handleSave)
	mux.HandleFunc("DELETE /v1/reminders", s.handleDeleteAll)
	mux.HandleFunc("DELETE /v1/reminders/{id}", s.handleDelete)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.source.GetReminders(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reminders)
}

// saveRequest is a candidate reminder as submitted by the presentation
// layer. The id is always generated server-side.
type saveRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	candidate := domain.NewReminder(req.Title, req.Description, req.Location, req.Latitude, req.Longitude)

	if err := s.saver.Save(r.Context(), candidate); err != nil {
		status, body := saveFailure(err)
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusCreated, candidate)
}

// saveFailure maps a failed registration attempt to a status code and a
// body carrying the user-facing message and the state it failed in.
func saveFailure(err error) (int, map[string]string) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusUnprocessableEntity, map[string]string{
			"state": string(geofence.StateValidating),
			"error": validationErr.Message,
		}
	}

	var flowErr *geofence.FlowError
	if errors.As(err, &flowErr) {
		status := http.StatusBadGateway
		if flowErr.State == geofence.StateAwaitingPermission {
			status = http.StatusForbidden
		}
		return status, map[string]string{
			"state": string(flowErr.State),
			"error": flowErr.Message,
		}
	}

	return http.StatusInternalServerError, map[string]string{"error": err.Error()}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := s.source.GetReminder(r.Context(), id); err != nil {
		var storeErr *domain.StoreError
		if errors.As(err, &storeErr) && storeErr.Code == domain.NotFoundCode {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": storeErr.Message})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if err := s.source.DeleteReminder(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if err := s.remover.Unregister(r.Context(), id); err != nil {
		// The reminder is gone; a stale fence only produces a not-found
		// lookup on its next trigger.
		s.logger.Warn("geofence unregister failed", "reminder_id", id, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.source.GetReminders(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if err := s.source.DeleteAllReminders(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	for _, reminder := range reminders {
		if err := s.remover.Unregister(r.Context(), reminder.ID); err != nil {
			s.logger.Warn("geofence unregister failed", "reminder_id", reminder.ID, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
