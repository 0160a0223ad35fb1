package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wudi/apiproxy/internal/config"
	"github.com/wudi/apiproxy/internal/headers"
	"github.com/wudi/apiproxy/internal/router"
)

func newTestProxy(t *testing.T, routes map[string]string, client *http.Client) *Proxy {
	t.Helper()
	table, err := router.NewTable(routes)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	return New(Config{
		Table:     table,
		Allowed:   headers.NewAllowSet(config.DefaultAllowedHeaders),
		Forwarder: NewForwarder(client),
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, int) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("error Content-Type = %q, want application/json", ct)
	}
	var body struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error JSON %q: %v", rec.Body.String(), err)
	}
	return body.Error, body.Code
}

func TestPipelineRelaysRequestAndResponse(t *testing.T) {
	var seen struct {
		path   string
		query  string
		body   []byte
		header http.Header
	}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.path = r.URL.Path
		seen.query = r.URL.RawQuery
		seen.header = r.Header.Clone()
		seen.body, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Frame-Options", "ALLOWALL")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"model-1"}`))
	}))
	defer upstream.Close()

	p := newTestProxy(t, map[string]string{"/openai": upstream.URL}, upstream.Client())

	payload := []byte(`{"prompt":"hello"}`)
	req := httptest.NewRequest("POST", "/openai/v1/models?limit=2", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer abc")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Custom", "secret")

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	// Upstream view
	if seen.path != "/v1/models" {
		t.Errorf("upstream path = %q, want /v1/models", seen.path)
	}
	if seen.query != "limit=2" {
		t.Errorf("upstream query = %q, want limit=2", seen.query)
	}
	if !bytes.Equal(seen.body, payload) {
		t.Errorf("upstream body = %q, want request bytes unmodified", seen.body)
	}
	if seen.header.Get("Authorization") != "Bearer abc" {
		t.Errorf("Authorization = %q, want forwarded unchanged", seen.header.Get("Authorization"))
	}
	if seen.header.Get("X-Custom") != "" {
		t.Error("X-Custom must not reach the upstream")
	}

	// Client view
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if rec.Body.String() != `{"id":"model-1"}` {
		t.Errorf("body = %q, want upstream bytes unmodified", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	for name, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
		"X-XSS-Protection":       "1; mode=block",
	} {
		values := rec.Header().Values(name)
		if len(values) != 1 || values[0] != want {
			t.Errorf("%s = %v, want exactly [%q]", name, values, want)
		}
	}
}

func TestPipelineNoRoute(t *testing.T) {
	p := newTestProxy(t, map[string]string{"/openai": "https://api.openai.com"}, nil)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest("GET", "/unknown", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	msg, code := decodeError(t, rec)
	if code != 404 || msg == "" {
		t.Errorf("error body = %q/%d", msg, code)
	}
}

func TestPipelineMethodNotAllowed(t *testing.T) {
	p := newTestProxy(t, map[string]string{"/openai": "https://api.openai.com"}, nil)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest("TRACE", "/openai/v1/models", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if _, code := decodeError(t, rec); code != 405 {
		t.Errorf("error code = %d, want 405", code)
	}
}

func TestPipelineConnectRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	p := newTestProxy(t, map[string]string{"/api": "http://" + addr}, nil)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest("GET", "/api/x", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if _, code := decodeError(t, rec); code != 502 {
		t.Errorf("error code = %d, want 502", code)
	}
}

func TestPipelineTimeout(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer upstream.Close()
	defer close(release)

	p := newTestProxy(t, map[string]string{"/slow": upstream.URL},
		&http.Client{Timeout: 50 * time.Millisecond})

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest("GET", "/slow/x", nil))

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
	if _, code := decodeError(t, rec); code != 504 {
		t.Errorf("error code = %d, want 504", code)
	}
}

func TestPipelineExactPrefixHitsBase(t *testing.T) {
	var seenPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	p := newTestProxy(t, map[string]string{"/openai": upstream.URL}, upstream.Client())

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest("GET", "/openai", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if seenPath != "/" {
		t.Errorf("upstream path = %q, want /", seenPath)
	}
}

func TestPipelineBinaryBodyRoundTrip(t *testing.T) {
	payload := make([]byte, 512)
	for i := range payload {
		payload[i] = byte(i % 256)
	}

	var seenBody []byte
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenBody, _ = io.ReadAll(r.Body)
		w.Write(seenBody) // echo
	}))
	defer upstream.Close()

	p := newTestProxy(t, map[string]string{"/echo": upstream.URL}, upstream.Client())

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest("PUT", "/echo/blob", bytes.NewReader(payload)))

	if !bytes.Equal(seenBody, payload) {
		t.Error("upstream did not see the exact request bytes")
	}
	if !bytes.Equal(rec.Body.Bytes(), payload) {
		t.Error("client did not get the exact upstream bytes back")
	}
}
