package metrics

import (
	"sync/atomic"
	"time"
)

// Requests slower than this count as slow. Nothing in the API should take
// a second; the sheet PDF render is the usual suspect when this moves.
const slowThreshold = time.Second

// Collector aggregates request counters for the workforce API. All fields
// are updated atomically so it can sit on the hot path without locks.
type Collector struct {
	startedAt       time.Time
	requests        uint64
	clientErrors    uint64
	serverErrors    uint64
	denied          uint64
	throttled       uint64
	slow            uint64
	totalDurationMs uint64
}

func New() *Collector {
	return &Collector{startedAt: time.Now()}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.requests, 1)
	switch {
	case status == 429:
		atomic.AddUint64(&c.throttled, 1)
	case status == 401 || status == 403:
		atomic.AddUint64(&c.denied, 1)
	case status >= 500:
		atomic.AddUint64(&c.serverErrors, 1)
	case status >= 400:
		atomic.AddUint64(&c.clientErrors, 1)
	}
	if duration >= slowThreshold {
		atomic.AddUint64(&c.slow, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) Snapshot() map[string]any {
	requests := atomic.LoadUint64(&c.requests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if requests > 0 {
		avg = float64(totalMs) / float64(requests)
	}
	return map[string]any{
		"uptimeSeconds":     int64(time.Since(c.startedAt).Seconds()),
		"requestsTotal":     requests,
		"clientErrorsTotal": atomic.LoadUint64(&c.clientErrors),
		"serverErrorsTotal": atomic.LoadUint64(&c.serverErrors),
		"deniedTotal":       atomic.LoadUint64(&c.denied),
		"rateLimitedTotal":  atomic.LoadUint64(&c.throttled),
		"slowRequestsTotal": atomic.LoadUint64(&c.slow),
		"avgDurationMs":     avg,
	}
}
