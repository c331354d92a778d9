package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onnwee/boothpulse/internal/middleware"
	"github.com/onnwee/boothpulse/internal/proximity"
	"github.com/onnwee/boothpulse/internal/source"
	"github.com/onnwee/boothpulse/internal/synthetic"
)

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		format, out, want string
	}{
		{"", "", formatJSON},
		{"", "snapshot.json", formatJSON},
		{"", "snapshot.CBOR", formatCBOR},
		{"CBOR", "snapshot.json", formatCBOR},
		{"json", "snapshot.cbor", formatJSON},
	}
	for _, tt := range tests {
		if got := resolveFormat(tt.format, tt.out); got != tt.want {
			t.Errorf("resolveFormat(%q, %q) = %q, want %q", tt.format, tt.out, got, tt.want)
		}
	}
}

// The written snapshot must be readable by the API's decoder.
func TestWriteSnapshot_DecodesBack(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	events := synthetic.New(7).Events(day, 25)

	for format, contentType := range map[string]string{
		formatJSON: source.ContentTypeJSON,
		formatCBOR: source.ContentTypeCBOR,
	} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeSnapshot(&buf, events, format); err != nil {
				t.Fatalf("writeSnapshot: %v", err)
			}

			decoded, err := source.Decode(&buf, contentType)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(decoded) != len(events) {
				t.Fatalf("expected %d events, got %d", len(events), len(decoded))
			}
			for i, raw := range decoded {
				if _, err := proximity.Parse(raw); err != nil {
					t.Errorf("event %d does not parse: %v", i, err)
				}
			}
		})
	}
}

func TestWriteSnapshot_UnknownFormat(t *testing.T) {
	err := writeSnapshot(&bytes.Buffer{}, nil, "xml")
	if !errors.Is(err, errUnknownFormat) {
		t.Errorf("expected errUnknownFormat, got %v", err)
	}
}

func TestNotify(t *testing.T) {
	var gotMethod, gotPath, gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotID = r.Header.Get(middleware.RequestIDHeader)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	if err := notify(context.Background(), srv.Client(), srv.URL+"/", "seed-1"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/notify" {
		t.Errorf("got %s %s", gotMethod, gotPath)
	}
	if gotID != "seed-1" {
		t.Errorf("request id header = %q, want seed-1", gotID)
	}
}

func TestNotify_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if err := notify(context.Background(), srv.Client(), srv.URL, "seed-2"); err == nil {
		t.Error("expected error for 429")
	}
}
