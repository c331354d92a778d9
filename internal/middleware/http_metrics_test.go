package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/ws", "/ws"},
		{"/api/views/dashboard", "/api/views/dashboard"},
		{"/api/views/booths/", "/api/views/booths"},
		{"/api/views/assistant-context", "/api/views/assistant-context"},
		{"/api/views/secret", "other"},
		{"/api/synthetic/trends", "/api/synthetic/trends"},
		{"/api/notify", "/api/notify"},
		{"/wp-login.php", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestHTTPMetrics(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		status      int
		wantRecords bool
	}{
		{"GET view", http.MethodGet, "/api/views/dashboard", "", http.StatusOK, true},
		{"POST view", http.MethodPost, "/api/views/booths", `[{"device_id":"a"}]`, http.StatusOK, true},
		{"unknown route", http.MethodGet, "/nope", "", http.StatusNotFound, true},
		{"health excluded", http.MethodGet, "/health", "", http.StatusOK, false},
		{"ready excluded", http.MethodGet, "/ready", "", http.StatusOK, false},
		{"websocket excluded", http.MethodGet, "/ws", "", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMetrics()
			reg := prometheus.NewRegistry()
			if err := m.Register(reg); err != nil {
				t.Fatalf("Register() failed: %v", err)
			}

			handler := HTTPMetrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{}`))
			}))

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			handler.ServeHTTP(httptest.NewRecorder(), req)

			labels := map[string]string{
				"method": tt.method,
				"route":  normalizePath(tt.path),
			}
			got := counterValue(t, reg, MetricHTTPRequestsTotal, labels)
			if tt.wantRecords && got != 1 {
				t.Errorf("expected 1 recorded request, got %v", got)
			}
			if !tt.wantRecords && got != 0 {
				t.Errorf("expected no recorded request, got %v", got)
			}
		})
	}
}

func TestHTTPMetrics_StatusLabel(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	handler := HTTPMetrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.WriteHeader(http.StatusOK) // ignored
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/views/visitors?range=month", nil))

	got := counterValue(t, reg, MetricHTTPRequestsTotal, map[string]string{
		"route":  "/api/views/visitors",
		"status": "400",
	})
	if got != 1 {
		t.Errorf("expected one 400 request, got %v", got)
	}
}

func TestHTTPMetrics_SnapshotEncoding(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	handler := HTTPMetrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
	}))

	send := func(contentType, body string) {
		req := httptest.NewRequest(http.MethodPost, "/api/views/booths", strings.NewReader(body))
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	send("application/json; charset=utf-8", `[]`)
	send("application/cbor", "\x80")
	send("application/vnd.boothpulse+json", `[]`)
	send("", "")

	tests := []struct {
		encoding string
		want     uint64
	}{
		{EncodingJSON, 2},
		{EncodingCBOR, 1},
		{EncodingOther, 0},
	}
	for _, tt := range tests {
		got := histogramCount(t, reg, MetricHTTPSnapshotBytes, map[string]string{
			"route":    "/api/views/booths",
			"encoding": tt.encoding,
		})
		if got != tt.want {
			t.Errorf("%s snapshots = %d, want %d", tt.encoding, got, tt.want)
		}
	}
}

func TestBodyEncoding(t *testing.T) {
	tests := map[string]string{
		"application/json":                EncodingJSON,
		"application/problem+json":        EncodingJSON,
		"application/cbor":                EncodingCBOR,
		"text/csv":                        EncodingOther,
		"":                                EncodingOther,
		"application/json; charset=utf-8": EncodingJSON,
	}
	for ct, want := range tests {
		if got := bodyEncoding(ct); got != want {
			t.Errorf("bodyEncoding(%q) = %q, want %q", ct, got, want)
		}
	}
}

func TestMetricsResponseWriter_HijackUnsupported(t *testing.T) {
	mrw := newMetricsResponseWriter(httptest.NewRecorder())
	if _, _, err := mrw.Hijack(); err == nil {
		t.Error("expected error hijacking a recorder")
	}
}
