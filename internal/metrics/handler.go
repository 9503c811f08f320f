package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Check is a named health probe.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// NewHandler serves metrics on path, /health from checks, and
// /debug/progress from progress (if set).
func NewHandler(gatherer prometheus.Gatherer, path string, progress func() any, checks ...Check) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		for _, c := range checks {
			if err := c.Fn(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components[c.Name] = map[string]string{
					"status": "down",
					"error":  err.Error(),
				}
			} else {
				health.Components[c.Name] = "up"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	if progress != nil {
		mux.HandleFunc("/debug/progress", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(progress())
		})
	}

	return mux
}
