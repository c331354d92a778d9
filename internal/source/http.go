package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/boothpulse/internal/proximity"
	"github.com/onnwee/boothpulse/internal/tracing"
)

// maxSnapshotBytes caps how much of an upstream response is read.
const maxSnapshotBytes = 32 << 20

// HTTP fetches snapshots from the ingestion service's read endpoint
// (e.g. GET /api/data). Trace context is propagated to the upstream.
type HTTP struct {
	url    string
	client *http.Client
}

// NewHTTP creates a source for url with the given request timeout.
func NewHTTP(url string, timeout time.Duration) *HTTP {
	return &HTTP{
		url: url,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Name implements Source.
func (h *HTTP) Name() string { return "http" }

// Fetch implements Source. Transport failures and 5xx answers wrap
// ErrUnavailable; other bad answers wrap ErrBadResponse.
func (h *HTTP) Fetch(ctx context.Context) (events []proximity.RawEvent, err error) {
	ctx, end := tracing.StartSourceSpan(ctx, h.Name())
	defer func() { end(err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", ContentTypeCBOR+", "+ContentTypeJSON+";q=0.9")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: upstream status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: upstream status %d", ErrBadResponse, resp.StatusCode)
	}

	events, err = Decode(io.LimitReader(resp.Body, maxSnapshotBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	tracing.AddEvent(ctx, "snapshot.decoded", attribute.Int("boothpulse.events.received", len(events)))
	return events, nil
}
