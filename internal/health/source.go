package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// ErrSourceNotConfigured is returned when a checker has nothing to check.
var ErrSourceNotConfigured = errors.New("telemetry source not configured")

// SourceChecker checks that the upstream telemetry endpoint is reachable.
// It issues a HEAD request; a 405 still proves the server is up.
type SourceChecker struct {
	url    string
	client *http.Client
}

// NewSourceChecker creates a checker for the telemetry endpoint at url.
func NewSourceChecker(url string) *SourceChecker {
	return &SourceChecker{
		url: url,
		client: &http.Client{
			Timeout: 3 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// HealthCheck implements the readiness check.
func (s *SourceChecker) HealthCheck(ctx context.Context) error {
	if s.url == "" {
		return ErrSourceNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach telemetry source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusMethodNotAllowed {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry source unhealthy: unexpected status code %d", resp.StatusCode)
	}
	return nil
}

// FileChecker checks that a file-backed telemetry snapshot is readable.
type FileChecker struct {
	path string
}

// NewFileChecker creates a checker for the snapshot at path.
func NewFileChecker(path string) *FileChecker {
	return &FileChecker{path: path}
}

// HealthCheck implements the readiness check.
func (f *FileChecker) HealthCheck(_ context.Context) error {
	if f.path == "" {
		return ErrSourceNotConfigured
	}
	info, err := os.Stat(f.path)
	if err != nil {
		return fmt.Errorf("telemetry file unavailable: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("telemetry file %s is a directory", f.path)
	}
	return nil
}
