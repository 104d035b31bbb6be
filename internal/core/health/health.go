// Package health serves liveness and readiness probes.
package health

import (
	"encoding/json"
	"net/http"
)

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// ReadinessReporter is implemented by components that must finish warming
// up before the service takes traffic (seed load, consumer group join).
type ReadinessReporter interface {
	Ready() bool
}

func Readiness(reporters ...ReadinessReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		type resp struct {
			Status string `json:"status"`
		}
		out := resp{Status: "ready"}
		for _, rr := range reporters {
			if rr != nil && !rr.Ready() {
				out.Status = "not_ready"
				break
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if out.Status != "ready" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
