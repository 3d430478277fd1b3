package services

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics tracks push-layer activity and resource usage.
type Metrics struct {
	activeConnections int64
	totalConnections  int64
	activeRooms       int64

	messagesSent        int64
	broadcastErrors     int64
	rateLimitViolations int64

	startTime time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) IncrementConnections() {
	atomic.AddInt64(&m.activeConnections, 1)
	atomic.AddInt64(&m.totalConnections, 1)
}

func (m *Metrics) DecrementConnections() {
	atomic.AddInt64(&m.activeConnections, -1)
}

func (m *Metrics) IncrementRooms() {
	atomic.AddInt64(&m.activeRooms, 1)
}

func (m *Metrics) DecrementRooms() {
	atomic.AddInt64(&m.activeRooms, -1)
}

func (m *Metrics) IncrementMessagesSent() {
	atomic.AddInt64(&m.messagesSent, 1)
}

func (m *Metrics) IncrementBroadcastErrors() {
	atomic.AddInt64(&m.broadcastErrors, 1)
}

func (m *Metrics) IncrementRateLimitViolations() {
	atomic.AddInt64(&m.rateLimitViolations, 1)
}

// MetricsSnapshot is a point-in-time view for the health endpoint.
type MetricsSnapshot struct {
	ActiveConnections   int64  `json:"active_connections"`
	TotalConnections    int64  `json:"total_connections"`
	ActiveRooms         int64  `json:"active_rooms"`
	MessagesSent        int64  `json:"messages_sent"`
	BroadcastErrors     int64  `json:"broadcast_errors"`
	RateLimitViolations int64  `json:"rate_limit_violations"`
	UptimeSeconds       int64  `json:"uptime_seconds"`
	MemoryUsageMB       uint64 `json:"memory_usage_mb"`
	NumGoroutines       int    `json:"num_goroutines"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return MetricsSnapshot{
		ActiveConnections:   atomic.LoadInt64(&m.activeConnections),
		TotalConnections:    atomic.LoadInt64(&m.totalConnections),
		ActiveRooms:         atomic.LoadInt64(&m.activeRooms),
		MessagesSent:        atomic.LoadInt64(&m.messagesSent),
		BroadcastErrors:     atomic.LoadInt64(&m.broadcastErrors),
		RateLimitViolations: atomic.LoadInt64(&m.rateLimitViolations),
		UptimeSeconds:       int64(time.Since(m.startTime).Seconds()),
		MemoryUsageMB:       memStats.Alloc / 1024 / 1024,
		NumGoroutines:       runtime.NumGoroutine(),
	}
}
