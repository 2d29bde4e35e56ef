package health

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEndpointCheckHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ok, detail := EndpointCheck(srv.URL, time.Second)()
	assert.True(t, ok)
	assert.Equal(t, "ok", detail)
}

func TestEndpointCheckNotFoundStillReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ok, _ := EndpointCheck(srv.URL, time.Second)()
	assert.True(t, ok)
}

func TestEndpointCheckServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ok, detail := EndpointCheck(srv.URL, time.Second)()
	assert.False(t, ok)
	assert.Contains(t, detail, "500")
}

func TestEndpointCheckUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	ok, detail := EndpointCheck(srv.URL, time.Second)()
	assert.False(t, ok)
	assert.Contains(t, detail, "unreachable")
}

func TestDatasetCheck(t *testing.T) {
	ok, detail := DatasetCheck(func() map[string]int { return map[string]int{"contracts": 4} })()
	assert.True(t, ok)
	assert.Contains(t, detail, "4 contracts")

	ok, detail = DatasetCheck(func() map[string]int { return map[string]int{} })()
	assert.False(t, ok)
	assert.Contains(t, detail, "no contracts")
}

func TestRunAggregates(t *testing.T) {
	healthy, results := Run(map[string]CheckFunc{
		"good": func() (bool, string) { return true, "ok" },
		"bad":  func() (bool, string) { return false, "down" },
	})
	assert.False(t, healthy)
	assert.True(t, results["good"].Healthy)
	assert.False(t, results["bad"].Healthy)
	assert.Equal(t, "down", results["bad"].Detail)
}
