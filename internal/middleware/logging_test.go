package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// testLogEntry represents a parsed JSON log entry for testing.
type testLogEntry struct {
	Level     string `json:"level"`
	Msg       string `json:"msg"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Size      int    `json:"size"`
	RequestID string `json:"request_id"`
	ErrorCode string `json:"error_code"`
	View      string `json:"view"`
	Excluded  int    `json:"excluded"`
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) testLogEntry {
	t.Helper()
	var entry testLogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v, log: %s", err, buf.String())
	}
	return entry
}

func TestLogging_BasicFields(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := Logging(newTestLogger(buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/views/dashboard", nil))

	entry := decodeEntry(t, buf)
	if entry.Method != "GET" || entry.Path != "/api/views/dashboard" {
		t.Errorf("unexpected method/path %s %s", entry.Method, entry.Path)
	}
	if entry.Status != 200 || entry.Size != 5 {
		t.Errorf("unexpected status/size %d %d", entry.Status, entry.Size)
	}
	if entry.Level != "INFO" {
		t.Errorf("expected level INFO, got %s", entry.Level)
	}
}

func TestLogging_WithRequestID(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := RequestID(Logging(newTestLogger(buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/views/booths", nil)
	req.Header.Set(RequestIDHeader, "test-request-id-456")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if entry := decodeEntry(t, buf); entry.RequestID != "test-request-id-456" {
		t.Errorf("expected request_id test-request-id-456, got %s", entry.RequestID)
	}
}

func TestLogging_ErrorCodeFromHandler(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		code      string
		wantLevel string
		wantCode  string
	}{
		{"client error", http.StatusBadRequest, "validation_error", "WARN", "validation_error"},
		{"server error", http.StatusBadGateway, "source_error", "ERROR", "source_error"},
		{"success ignores code", http.StatusOK, "ignored", "INFO", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			handler := Logging(newTestLogger(buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				SetErrorCode(r.Context(), tt.code)
				w.WriteHeader(tt.status)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

			entry := decodeEntry(t, buf)
			if entry.Level != tt.wantLevel {
				t.Errorf("level = %s, want %s", entry.Level, tt.wantLevel)
			}
			if entry.ErrorCode != tt.wantCode {
				t.Errorf("error_code = %q, want %q", entry.ErrorCode, tt.wantCode)
			}
		})
	}
}

func TestLogging_Annotations(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := Logging(newTestLogger(buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Annotate(r.Context(), slog.String("view", "dashboard"), slog.Int("excluded", 2))
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/views/dashboard", nil))

	entry := decodeEntry(t, buf)
	if entry.View != "dashboard" || entry.Excluded != 2 {
		t.Errorf("annotations missing: %+v", entry)
	}
}

func TestSetErrorCode_WithoutLoggingMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := SetErrorCode(req.Context(), "not_found")
	if got := GetErrorCode(ctx); got != "not_found" {
		t.Errorf("GetErrorCode = %q, want not_found", got)
	}
	if got := GetErrorCode(req.Context()); got != "" {
		t.Errorf("original context should be untouched, got %q", got)
	}
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		if NewLogger(env) == nil {
			t.Errorf("NewLogger(%q) returned nil", env)
		}
	}
}
