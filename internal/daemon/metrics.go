package daemon

import (
	"sync/atomic"
	"time"
)

// Metrics tracks daemon statistics using atomic operations for thread-safety
type Metrics struct {
	RequestsReceived atomic.Int64
	RequestsAcked    atomic.Int64
	RequestsRejected atomic.Int64
	FramesSent       atomic.Int64
	PingsSent        atomic.Int64
	StaleDropped     atomic.Int64
	ConnectedClients atomic.Int32
	StartTime        time.Time
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime: time.Now(),
	}
}

// IncRequestsReceived increments the requests received counter
func (m *Metrics) IncRequestsReceived() {
	m.RequestsReceived.Add(1)
}

// IncRequestsAcked increments the acknowledged requests counter
func (m *Metrics) IncRequestsAcked() {
	m.RequestsAcked.Add(1)
}

// IncRequestsRejected increments the rejected requests counter
func (m *Metrics) IncRequestsRejected() {
	m.RequestsRejected.Add(1)
}

// IncFramesSent increments the frames written to clients
func (m *Metrics) IncFramesSent() {
	m.FramesSent.Add(1)
}

// IncPingsSent increments the health-check pings counter
func (m *Metrics) IncPingsSent() {
	m.PingsSent.Add(1)
}

// IncStaleDropped counts connections dropped for missing pongs
func (m *Metrics) IncStaleDropped() {
	m.StaleDropped.Add(1)
}

// SetConnectedClients sets the current connected clients count
func (m *Metrics) SetConnectedClients(count int32) {
	m.ConnectedClients.Store(count)
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	RequestsReceived int64     `json:"requests_received"`
	RequestsAcked    int64     `json:"requests_acked"`
	RequestsRejected int64     `json:"requests_rejected"`
	FramesSent       int64     `json:"frames_sent"`
	PingsSent        int64     `json:"pings_sent"`
	StaleDropped     int64     `json:"stale_dropped"`
	ConnectedClients int32     `json:"connected_clients"`
	StartTime        time.Time `json:"start_time"`
	Uptime           string    `json:"uptime"`
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		RequestsReceived: m.RequestsReceived.Load(),
		RequestsAcked:    m.RequestsAcked.Load(),
		RequestsRejected: m.RequestsRejected.Load(),
		FramesSent:       m.FramesSent.Load(),
		PingsSent:        m.PingsSent.Load(),
		StaleDropped:     m.StaleDropped.Load(),
		ConnectedClients: m.ConnectedClients.Load(),
		StartTime:        m.StartTime,
		Uptime:           time.Since(m.StartTime).String(),
	}
}
