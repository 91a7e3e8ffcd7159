// Package metrics provides request tracking for the running server.
package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// ServeMetrics tracks what the server answered since it started.
// Counters are safe for concurrent use.
type ServeMetrics struct {
	StartTime time.Time

	requests     atomic.Int64
	succeeded    atomic.Int64
	notFound     atomic.Int64
	forbidden    atomic.Int64
	serverErrors atomic.Int64
	bytesSent    atomic.Int64
}

// NewServeMetrics creates a new metrics instance.
func NewServeMetrics() *ServeMetrics {
	return &ServeMetrics{
		StartTime: time.Now(),
	}
}

// Record counts one finished response.
func (m *ServeMetrics) Record(status int, bytes int64) {
	m.requests.Add(1)
	m.bytesSent.Add(bytes)

	switch {
	case status == http.StatusNotFound:
		m.notFound.Add(1)
	case status == http.StatusForbidden:
		m.forbidden.Add(1)
	case status >= 500:
		m.serverErrors.Add(1)
	case status < 400:
		m.succeeded.Add(1)
	}
}

// Requests returns the number of finished responses.
func (m *ServeMetrics) Requests() int64 {
	return m.requests.Load()
}

// Succeeded returns the number of 1xx, 2xx and 3xx responses.
func (m *ServeMetrics) Succeeded() int64 {
	return m.succeeded.Load()
}

// NotFound returns the number of 404 responses.
func (m *ServeMetrics) NotFound() int64 {
	return m.notFound.Load()
}

// Forbidden returns the number of 403 responses.
func (m *ServeMetrics) Forbidden() int64 {
	return m.forbidden.Load()
}

// ServerErrors returns the number of 5xx responses.
func (m *ServeMetrics) ServerErrors() int64 {
	return m.serverErrors.Load()
}

// BytesSent returns the total body bytes written.
func (m *ServeMetrics) BytesSent() int64 {
	return m.bytesSent.Load()
}

// Uptime returns how long the server has been running.
func (m *ServeMetrics) Uptime() time.Duration {
	return time.Since(m.StartTime)
}

// String returns a formatted summary (minimal single-line format).
func (m *ServeMetrics) String() string {
	return fmt.Sprintf("📊 Served %d requests in %v (%d ok, %d not found, %d forbidden, %d errors, %s sent)",
		m.Requests(),
		m.Uptime().Round(time.Second),
		m.Succeeded(),
		m.NotFound(),
		m.Forbidden(),
		m.ServerErrors(),
		formatBytes(m.BytesSent()),
	)
}

// Print outputs the metrics to stdout.
func (m *ServeMetrics) Print() {
	fmt.Println(m.String())
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
