package api

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const healthCheckTimeout = 5 * time.Second

// HealthCheck probes one backing service
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type checkResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []checkResult `json:"checks,omitempty"`
}

// HealthHandler serves GET /health. It answers 503 when any check fails.
func HealthHandler(checks ...HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		results := make([]checkResult, len(checks))
		var wg sync.WaitGroup
		for i, check := range checks {
			wg.Add(1)
			go func(idx int, c HealthCheck) {
				defer wg.Done()
				res := checkResult{Name: c.Name, Status: "up"}
				if err := c.Check(ctx); err != nil {
					res.Status = "down"
					res.Message = err.Error()
				}
				results[idx] = res
			}(i, check)
		}
		wg.Wait()

		resp := healthResponse{Status: "ok", Timestamp: time.Now().UTC(), Checks: results}
		status := http.StatusOK
		for _, res := range results {
			if res.Status == "down" {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, status, resp)
	}
}
