package middleware

import (
	"bufio"
	"errors"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// viewRoutes are the named views served under /api/views/.
var viewRoutes = map[string]bool{
	"dashboard":         true,
	"booths":            true,
	"visitors":          true,
	"assistant-context": true,
}

// staticRoutes are matched exactly.
var staticRoutes = map[string]bool{
	"/":                     true,
	"/health":               true,
	"/ready":                true,
	"/metrics":              true,
	"/ws":                   true,
	"/api/notify":           true,
	"/api/synthetic/trends": true,
}

// normalizePath maps a request path to a bounded route label. Unknown paths
// collapse into "other" so scanners cannot grow the label set.
func normalizePath(path string) string {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if staticRoutes[path] {
		return path
	}
	if name, ok := strings.CutPrefix(path, "/api/views/"); ok && viewRoutes[name] {
		return path
	}
	return "other"
}

// metricsResponseWriter captures the status code and response size.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
}

func (mrw *metricsResponseWriter) WriteHeader(code int) {
	if mrw.wroteHeader {
		return
	}
	mrw.statusCode = code
	mrw.wroteHeader = true
	mrw.ResponseWriter.WriteHeader(code)
}

func (mrw *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := mrw.ResponseWriter.Write(b)
	mrw.size += int64(n)
	return n, err
}

// Hijack lets websocket upgrades pass through the metrics wrapper.
func (mrw *metricsResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := mrw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("middleware: response writer does not support hijacking")
	}
	mrw.statusCode = http.StatusSwitchingProtocols
	mrw.wroteHeader = true
	return h.Hijack()
}

func (mrw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return mrw.ResponseWriter
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// HTTPMetrics is a middleware that records request duration, response size
// and, for requests carrying a body, the submitted snapshot size by encoding.
// Health endpoints (/health, /ready) and the long-lived /ws connection are not
// recorded.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/health", "/ready", "/ws":
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			mrw := newMetricsResponseWriter(w)
			next.ServeHTTP(mrw, r)

			s := RequestSample{
				Method:        r.Method,
				Route:         normalizePath(r.URL.Path),
				Status:        mrw.statusCode,
				Duration:      time.Since(start),
				ResponseBytes: mrw.size,
			}
			if r.ContentLength > 0 {
				s.BodyBytes = r.ContentLength
				s.Encoding = bodyEncoding(r.Header.Get("Content-Type"))
			}
			metrics.Observe(s)
		})
	}
}

// bodyEncoding maps a Content-Type to one of the snapshot encodings.
func bodyEncoding(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	switch {
	case err != nil:
		return EncodingOther
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return EncodingJSON
	case mediaType == "application/cbor":
		return EncodingCBOR
	default:
		return EncodingOther
	}
}

func statusLabel(code int) string { return strconv.Itoa(code) }
