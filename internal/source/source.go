// Package source delivers raw proximity snapshots to the HTTP layer: from an
// upstream ingestion endpoint, a JSON or CBOR file, or an in-memory slice.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/onnwee/boothpulse/internal/proximity"
)

// Content types understood by Decode.
const (
	ContentTypeJSON = "application/json"
	ContentTypeCBOR = "application/cbor"
)

// Source errors.
var (
	// ErrUnavailable means the snapshot could not be obtained at all.
	ErrUnavailable = errors.New("telemetry source unavailable")
	// ErrBadResponse means the source answered with something unusable.
	ErrBadResponse = errors.New("telemetry source returned an invalid snapshot")
	// ErrUnsupportedContentType is returned by Decode for unknown media types.
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

// Source fetches the current snapshot of raw events.
type Source interface {
	Fetch(ctx context.Context) ([]proximity.RawEvent, error)
	// Name identifies the source in logs and spans.
	Name() string
}

// envelope is the object form of a snapshot.
type envelope struct {
	Events []proximity.RawEvent `json:"events" cbor:"events"`
}

// Decode reads a snapshot in the given media type. JSON accepts a bare array
// or {"events":[...]}; numbers are kept as json.Number so epoch timestamps
// and booth ids survive unchanged. CBOR accepts the same two shapes. An empty
// content type is treated as JSON.
func Decode(r io.Reader, contentType string) ([]proximity.RawEvent, error) {
	mediaType := ContentTypeJSON
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
		}
		mediaType = mt
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	switch {
	case mediaType == ContentTypeJSON || strings.HasSuffix(mediaType, "+json"):
		return decodeJSON(data)
	case mediaType == ContentTypeCBOR:
		return decodeCBOR(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentType, mediaType)
	}
}

func decodeJSON(data []byte) ([]proximity.RawEvent, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty snapshot body")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if trimmed[0] == '{' {
		var env envelope
		if err := dec.Decode(&env); err != nil {
			return nil, fmt.Errorf("decoding JSON snapshot: %w", err)
		}
		return nonNil(env.Events), nil
	}

	var events []proximity.RawEvent
	if err := dec.Decode(&events); err != nil {
		return nil, fmt.Errorf("decoding JSON snapshot: %w", err)
	}
	return nonNil(events), nil
}

func decodeCBOR(data []byte) ([]proximity.RawEvent, error) {
	if len(data) == 0 {
		return nil, errors.New("empty snapshot body")
	}

	// Major type 5 (map) is the envelope form.
	if data[0]>>5 == 5 {
		var env envelope
		if err := cbor.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("decoding CBOR snapshot: %w", err)
		}
		return nonNil(env.Events), nil
	}

	var events []proximity.RawEvent
	if err := cbor.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decoding CBOR snapshot: %w", err)
	}
	return nonNil(events), nil
}

func nonNil(events []proximity.RawEvent) []proximity.RawEvent {
	if events == nil {
		return []proximity.RawEvent{}
	}
	return events
}

// Static serves a fixed snapshot. It is used by tests and by the seed tool.
type Static struct {
	Events []proximity.RawEvent
}

// Fetch implements Source. The returned slice is a copy.
func (s Static) Fetch(ctx context.Context) ([]proximity.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]proximity.RawEvent, len(s.Events))
	copy(out, s.Events)
	return out, nil
}

// Name implements Source.
func (Static) Name() string { return "static" }
