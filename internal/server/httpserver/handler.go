package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yndnr/geminid/internal/infra/buildinfo"
)

type handler struct {
	ready func() bool
	hosts func() []string
}

// handleHealth handles GET /health.
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": buildinfo.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready.
func (h *handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil && !h.ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleSites handles GET /sites.
func (h *handler) handleSites(w http.ResponseWriter, r *http.Request) {
	hosts := []string{}
	if h.hosts != nil {
		hosts = append(hosts, h.hosts()...)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sites": hosts,
		"count": len(hosts),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
