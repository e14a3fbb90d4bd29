package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "/", want: "/"},
		{in: "/feed", want: "/feed"},
		{in: "/recent", want: "/recent"},
		{in: "/trending", want: "/trending"},
		{in: "/metrics", want: "/metrics"},
		{in: "/posts/0f3c9d1e", want: "/posts/{id}"},
		{in: "/posts/0f3c9d1e/seen", want: "/posts/{id}/seen"},
		{in: "/posts/", want: "/posts/"},
		{in: "/unknown/route", want: "/unknown/route"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHTTPMetrics_RecordsRequests(t *testing.T) {
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatal(err)
	}

	handler := HTTPMetrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/abc123", nil))
	}

	got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/posts/{id}", "200"))
	if got != 3 {
		t.Errorf("http_requests_total = %v, want 3", got)
	}
}

func TestHTTPMetrics_SkipsHealthProbes(t *testing.T) {
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatal(err)
	}

	handler := HTTPMetrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ready", nil))

	if n := testutil.CollectAndCount(metrics.httpRequestsTotal); n != 0 {
		t.Errorf("health probes recorded %d series, want 0", n)
	}
}

func TestMetrics_RegisterTwiceFails(t *testing.T) {
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()

	if err := metrics.Register(reg); err != nil {
		t.Fatal(err)
	}
	if err := metrics.Register(reg); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}
