// Package health provides the readiness checks served by the health
// endpoint.
package health

import (
	"fmt"
	"net/http"
	"time"
)

// CheckFunc runs one readiness probe: healthy or not, plus a detail string.
type CheckFunc func() (bool, string)

// EndpointCheck probes an HTTP endpoint for any 2xx or 3xx response. Model
// APIs commonly return 404 at the base path, which still proves
// reachability, so 404 counts as healthy too.
func EndpointCheck(url string, timeout time.Duration) CheckFunc {
	client := &http.Client{Timeout: timeout}
	return func() (bool, string) {
		resp, err := client.Get(url)
		if err != nil {
			return false, fmt.Sprintf("unreachable: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 400 || resp.StatusCode == http.StatusNotFound {
			return true, "ok"
		}
		return false, fmt.Sprintf("status %d", resp.StatusCode)
	}
}

// DatasetCheck verifies the loaded dataset has contracts to analyze.
func DatasetCheck(counts func() map[string]int) CheckFunc {
	return func() (bool, string) {
		c := counts()
		if c["contracts"] == 0 {
			return false, "no contracts loaded"
		}
		return true, fmt.Sprintf("%d contracts", c["contracts"])
	}
}

// Result is one named check outcome.
type Result struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail"`
}

// Run executes every check and reports overall health with per-check
// results.
func Run(checks map[string]CheckFunc) (bool, map[string]Result) {
	healthy := true
	results := make(map[string]Result, len(checks))
	for name, check := range checks {
		ok, detail := check()
		if !ok {
			healthy = false
		}
		results[name] = Result{Healthy: ok, Detail: detail}
	}
	return healthy, results
}
