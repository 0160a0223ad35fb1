package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequest("/openai", "POST", 200, 50*time.Millisecond)
	c.RecordRequest("/openai", "POST", 200, 70*time.Millisecond)
	c.RecordRequest("/openai", "GET", 404, time.Millisecond)

	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("/openai", "POST", "200")); got != 2 {
		t.Errorf("requests_total{POST,200} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("/openai", "GET", "404")); got != 1 {
		t.Errorf("requests_total{GET,404} = %v, want 1", got)
	}
}

func TestRecordError(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordError("upstream_timeout")
	c.RecordError("upstream_timeout")
	c.RecordError("no_route")

	if got := testutil.ToFloat64(c.proxyErrors.WithLabelValues("upstream_timeout")); got != 2 {
		t.Errorf("errors_total{upstream_timeout} = %v, want 2", got)
	}
}

func TestRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordRequest("/x", "GET", 200, time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"apiproxy_requests_total", "apiproxy_upstream_duration_seconds"} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}
