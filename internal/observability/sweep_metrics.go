package observability

import (
	"sync/atomic"
	"time"
)

// SweepMetrics is the in-process counterpart of the janitor's Prometheus
// series, served on the worker's /stats endpoint.
type SweepMetrics struct {
	runs    atomic.Uint64
	failed  atomic.Uint64
	removed atomic.Uint64

	// duration stats (nanoseconds)
	durationTotal atomic.Int64
	durationMax   atomic.Int64
	lastRunUnix   atomic.Int64
}

func NewSweepMetrics() *SweepMetrics {
	return &SweepMetrics{}
}

func (m *SweepMetrics) ObserveRun(removed int64, d time.Duration, err error) {
	m.runs.Add(1)
	m.lastRunUnix.Store(time.Now().Unix())
	if err != nil {
		m.failed.Add(1)
	} else if removed > 0 {
		m.removed.Add(uint64(removed))
	}

	ns := d.Nanoseconds()
	m.durationTotal.Add(ns)

	for {
		curr := m.durationMax.Load()

		if ns <= curr {
			return
		}

		if m.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type SweepMetricsSnapshot struct {
	Runs            uint64        `json:"runs"`
	Failed          uint64        `json:"failed"`
	Removed         uint64        `json:"removed"`
	AverageDuration time.Duration `json:"averageDurationNs"`
	MaxDuration     time.Duration `json:"maxDurationNs"`
	LastRun         time.Time     `json:"lastRun"`
}

func (m *SweepMetrics) Snapshot() SweepMetricsSnapshot {
	runs := m.runs.Load()
	total := m.durationTotal.Load()

	var avg time.Duration
	if runs > 0 {
		avg = time.Duration(total / int64(runs))
	}

	var last time.Time
	if u := m.lastRunUnix.Load(); u > 0 {
		last = time.Unix(u, 0).UTC()
	}

	return SweepMetricsSnapshot{
		Runs:            runs,
		Failed:          m.failed.Load(),
		Removed:         m.removed.Load(),
		AverageDuration: avg,
		MaxDuration:     time.Duration(m.durationMax.Load()),
		LastRun:         last,
	}
}
