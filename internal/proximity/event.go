package proximity

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// UnknownBooth is the group used for events without a booth identifier.
const UnknownBooth = "unknown"

// Event errors.
var (
	// ErrMalformedTimestamp is matched by every *TimestampError.
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	// ErrEmptySample reports an event without any RSSI readings.
	ErrEmptySample = errors.New("empty rssi sample")
	// ErrNonFiniteSample reports RSSI readings whose mean is not a finite number.
	ErrNonFiniteSample = errors.New("non-finite rssi sample")
	// ErrNegativeDwellTime reports an event whose out_time precedes in_time.
	ErrNegativeDwellTime = errors.New("negative dwell time")
)

// RawEvent is a proximity event as delivered by the upstream collector.
// Timestamps may be strings (RFC 3339 or ISO 8601 without zone), epoch
// milliseconds or native CBOR times; booth_id may be a string, a number or
// absent.
type RawEvent struct {
	DeviceID   string    `json:"device_id" cbor:"device_id"`
	BoothID    any       `json:"booth_id,omitempty" cbor:"booth_id,omitempty"`
	InTime     any       `json:"in_time" cbor:"in_time"`
	OutTime    any       `json:"out_time" cbor:"out_time"`
	Timestamp  any       `json:"timestamp" cbor:"timestamp"`
	RSSIValues []float64 `json:"rssi_values" cbor:"rssi_values"`
}

// Event is a validated proximity event. Events are never modified once parsed.
type Event struct {
	DeviceID  string
	BoothID   string
	InTime    time.Time
	OutTime   time.Time
	Timestamp time.Time
	RSSI      []float64
}

// TimestampError describes a timestamp field that could not be parsed.
type TimestampError struct {
	Field string
	Value any
	Err   error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("%s: %s %v: %v", ErrMalformedTimestamp, e.Field, e.Value, e.Err)
}

func (e *TimestampError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedTimestamp.
func (e *TimestampError) Is(target error) bool { return target == ErrMalformedTimestamp }

// Parse validates a raw event. A *TimestampError is returned when in_time,
// out_time or timestamp is missing or unparseable.
func Parse(raw RawEvent) (Event, error) {
	in, err := parseField("in_time", raw.InTime)
	if err != nil {
		return Event{}, err
	}
	out, err := parseField("out_time", raw.OutTime)
	if err != nil {
		return Event{}, err
	}
	ts, err := parseField("timestamp", raw.Timestamp)
	if err != nil {
		return Event{}, err
	}

	return Event{
		DeviceID:  raw.DeviceID,
		BoothID:   BoothKey(raw.BoothID),
		InTime:    in,
		OutTime:   out,
		Timestamp: ts,
		RSSI:      raw.RSSIValues,
	}, nil
}

func parseField(field string, v any) (time.Time, error) {
	t, err := ParseTime(v)
	if err != nil {
		return time.Time{}, &TimestampError{Field: field, Value: v, Err: err}
	}
	return t, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTime converts a wire timestamp into a time.Time. Strings without a
// zone offset are read as UTC. Numbers are epoch milliseconds.
func ParseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, errors.New("missing")
	case time.Time:
		if t.IsZero() {
			return time.Time{}, errors.New("zero time")
		}
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, errors.New("empty string")
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised format %q", s)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, err
		}
		return fromMillis(f)
	case float64:
		return fromMillis(t)
	case float32:
		return fromMillis(float64(t))
	case int:
		return fromMillis(float64(t))
	case int64:
		return fromMillis(float64(t))
	case uint64:
		return fromMillis(float64(t))
	default:
		return time.Time{}, fmt.Errorf("unsupported type %T", v)
	}
}

func fromMillis(ms float64) (time.Time, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, errors.New("non-finite epoch")
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}

// BoothKey returns the canonical string form of a booth identifier.
// Missing and empty identifiers map to UnknownBooth; numbers are formatted
// without a trailing fraction so that 3, 3.0 and "3" share a group.
func BoothKey(v any) string {
	switch b := v.(type) {
	case nil:
		return UnknownBooth
	case string:
		if s := strings.TrimSpace(b); s != "" {
			return s
		}
		return UnknownBooth
	case json.Number:
		if f, err := b.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return b.String()
	case float64:
		return strconv.FormatFloat(b, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(b), 'f', -1, 32)
	case int:
		return strconv.Itoa(b)
	case int64:
		return strconv.FormatInt(b, 10)
	case uint64:
		return strconv.FormatUint(b, 10)
	default:
		return fmt.Sprint(b)
	}
}
