// Package main is the entry point for the synthetic snapshot generator.
//
// It writes a demo snapshot of proximity events that the API can serve
// through SOURCE_FILE or that can be POSTed to a view endpoint, and can
// optionally tell a running API that new data is available.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/onnwee/boothpulse/internal/middleware"
	"github.com/onnwee/boothpulse/internal/proximity"
	"github.com/onnwee/boothpulse/internal/synthetic"
)

// Output formats.
const (
	formatJSON = "json"
	formatCBOR = "cbor"
)

var errUnknownFormat = errors.New("format must be json or cbor")

func main() {
	n := flag.Int("n", 100, "number of events to generate")
	seed := flag.Uint64("seed", 0, "RNG seed (0 picks one from the clock)")
	date := flag.String("date", "", "day to generate, YYYY-MM-DD (default today)")
	format := flag.String("format", "", "output format: json or cbor (default from -out extension, else json)")
	out := flag.String("out", "", "output file (default stdout)")
	notifyURL := flag.String("notify", "", "API base URL to POST /api/notify to after writing")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("BoothPulse Seed")
		fmt.Println()
		fmt.Println("Usage: seed [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// Logs go to stderr so stdout stays a clean snapshot.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	day := time.Now()
	if *date != "" {
		d, err := time.Parse(time.DateOnly, *date)
		if err != nil {
			logger.Error("invalid -date", "value", *date, "error", err)
			os.Exit(2)
		}
		day = d
	}
	if *n < 0 {
		logger.Error("invalid -n", "value", *n)
		os.Exit(2)
	}
	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	f := resolveFormat(*format, *out)
	events := synthetic.New(*seed).Events(day, *n)

	var w io.Writer = os.Stdout
	if *out != "" {
		file, err := os.Create(*out)
		if err != nil {
			logger.Error("failed to create output file", "path", *out, "error", err)
			os.Exit(1)
		}
		defer file.Close()
		w = file
	}

	if err := writeSnapshot(w, events, f); err != nil {
		logger.Error("failed to write snapshot", "error", err)
		os.Exit(1)
	}
	logger.Info("snapshot written",
		"events", len(events),
		"format", f,
		"seed", *seed,
		"day", day.Format(time.DateOnly),
		"out", *out)

	if *notifyURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		requestID := middleware.NewRequestID()
		if err := notify(ctx, http.DefaultClient, *notifyURL, requestID); err != nil {
			logger.Error("notify failed", "url", *notifyURL, "request_id", requestID, "error", err)
			os.Exit(1)
		}
		logger.Info("notified api", "url", *notifyURL, "request_id", requestID)
	}
}

// resolveFormat returns the explicit format, or infers it from the output
// file extension.
func resolveFormat(format, out string) string {
	if format != "" {
		return strings.ToLower(format)
	}
	if strings.EqualFold(filepath.Ext(out), ".cbor") {
		return formatCBOR
	}
	return formatJSON
}

// writeSnapshot encodes events as a bare array in the given format.
func writeSnapshot(w io.Writer, events []proximity.RawEvent, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	case formatCBOR:
		return cbor.NewEncoder(w).Encode(events)
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, format)
	}
}

// notify POSTs to baseURL/api/notify and expects 202.
func notify(ctx context.Context, client *http.Client, baseURL, requestID string) error {
	url := strings.TrimRight(baseURL, "/") + "/api/notify"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set(middleware.RequestIDHeader, requestID)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
