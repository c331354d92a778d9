// Package validate checks operator-supplied URLs before the service dials
// or trusts them.
package validate

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// URL validation errors
var (
	ErrEmpty            = errors.New("URL is empty")
	ErrTooLong          = errors.New("URL is too long")
	ErrInvalidURL       = errors.New("invalid URL format")
	ErrDisallowedScheme = errors.New("URL scheme not allowed")
	ErrInvalidOrigin    = errors.New("invalid origin")
)

// URLConstraints defines validation constraints for URLs.
type URLConstraints struct {
	AllowedSchemes []string // e.g., []string{"https", "http"}
	MaxLength      int      // Maximum URL length (0 = no limit)
	RejectUserInfo bool     // Reject credentials embedded in the URL
}

// SourceURLConstraints applies to the upstream snapshot endpoint. Private
// addresses are allowed; the collector usually sits on the same network.
var SourceURLConstraints = URLConstraints{
	AllowedSchemes: []string{"https", "http"},
	MaxLength:      2048,
}

// URL validates a URL against the given constraints and returns it trimmed.
func URL(urlStr string, constraints URLConstraints) (string, error) {
	urlStr = strings.TrimSpace(urlStr)
	if urlStr == "" {
		return "", ErrEmpty
	}
	if constraints.MaxLength > 0 && len(urlStr) > constraints.MaxLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrTooLong, constraints.MaxLength)
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if len(constraints.AllowedSchemes) > 0 && !slices.Contains(constraints.AllowedSchemes, parsed.Scheme) {
		return "", fmt.Errorf("%w: got %q, allowed: %v", ErrDisallowedScheme, parsed.Scheme, constraints.AllowedSchemes)
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("%w: missing hostname", ErrInvalidURL)
	}
	if constraints.RejectUserInfo && parsed.User != nil {
		return "", fmt.Errorf("%w: credentials not allowed", ErrInvalidURL)
	}

	return urlStr, nil
}

// SourceURL validates the upstream snapshot endpoint.
func SourceURL(urlStr string) (string, error) {
	return URL(urlStr, SourceURLConstraints)
}

// Origin validates a browser origin as sent in the Origin header:
// scheme and host with an optional port, and nothing else. Browsers compare
// origins byte for byte, so a trailing slash or path would never match.
func Origin(origin string) error {
	parsed, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidOrigin, origin, err)
	}
	switch {
	case parsed.Scheme != "http" && parsed.Scheme != "https":
		return fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidOrigin, origin)
	case parsed.Host == "":
		return fmt.Errorf("%w: %q: missing host", ErrInvalidOrigin, origin)
	case parsed.User != nil, parsed.Path != "", parsed.RawQuery != "", parsed.Fragment != "":
		return fmt.Errorf("%w: %q: must be scheme://host[:port] only", ErrInvalidOrigin, origin)
	}
	return nil
}
