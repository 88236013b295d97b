// Package metrics is a small in-process collector surfaced at /metrics.
// Counters cover requests and failures per operation; timers cover
// storage round trips.
package metrics

import (
	"sync"
	"time"
)

// Metrics is the process-wide collector.
type Metrics struct {
	mu        sync.RWMutex
	counters  map[string]int64
	timers    map[string]*timer
	startTime time.Time
}

type timer struct {
	count   int64
	totalMs int64
	maxMs   int64
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{
		counters:  make(map[string]int64),
		timers:    make(map[string]*timer),
		startTime: time.Now(),
	}
}

// IncrementCounter increments a counter by 1.
func (m *Metrics) IncrementCounter(name string) {
	m.mu.Lock()
	m.counters[name]++
	m.mu.Unlock()
}

// RecordTimer records a duration under a name.
func (m *Metrics) RecordTimer(name string, d time.Duration) {
	ms := d.Milliseconds()
	m.mu.Lock()
	t, ok := m.timers[name]
	if !ok {
		t = &timer{}
		m.timers[name] = t
	}
	t.count++
	t.totalMs += ms
	if ms > t.maxMs {
		t.maxMs = ms
	}
	m.mu.Unlock()
}

// TimerSnapshot is a timer rendered for the metrics endpoint.
type TimerSnapshot struct {
	Count         int64   `json:"count"`
	TotalTimeMs   int64   `json:"total_time_ms"`
	AverageTimeMs float64 `json:"average_time_ms"`
	MaxTimeMs     int64   `json:"max_time_ms"`
}

// Snapshot renders all metrics for the /metrics endpoint.
type Snapshot struct {
	UptimeSeconds int64                    `json:"uptime_seconds"`
	Counters      map[string]int64         `json:"counters"`
	Timers        map[string]TimerSnapshot `json:"timers"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds: int64(time.Since(m.startTime).Seconds()),
		Counters:      make(map[string]int64, len(m.counters)),
		Timers:        make(map[string]TimerSnapshot, len(m.timers)),
	}
	for name, v := range m.counters {
		snap.Counters[name] = v
	}
	for name, t := range m.timers {
		ts := TimerSnapshot{Count: t.count, TotalTimeMs: t.totalMs, MaxTimeMs: t.maxMs}
		if t.count > 0 {
			ts.AverageTimeMs = float64(t.totalMs) / float64(t.count)
		}
		snap.Timers[name] = ts
	}
	return snap
}
