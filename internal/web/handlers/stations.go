package handlers

import (
	"context"
	"net/http"
)

// StationLister lists directory station names. *cache.StationNames
// satisfies it.
type StationLister interface {
	All(ctx context.Context) []string
}

// Pinger checks the directory store. *directory.SQLStore satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StationsHandler serves the station directory and health checks.
type StationsHandler struct {
	Names StationLister
	Store Pinger
}

// ListStations handles GET /api/stations.
func (h *StationsHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	names := h.Names.All(r.Context())
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(names),
		"stations": names,
	})
}

// Health handles GET /healthz.
func (h *StationsHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
