package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/geocoder89/todohub/internal/observability"
)

// SessionSweeper removes sessions whose expiry is at or before now.
type SessionSweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Config struct {
	Interval     time.Duration
	SweepTimeout time.Duration
	Backoff      Backoff
}

// Janitor periodically purges expired sessions. Lookups already treat
// expired sessions as absent; the janitor only reclaims storage.
type Janitor struct {
	cfg     Config
	store   SessionSweeper
	log     *slog.Logger
	prom    *observability.Prom
	metrics *observability.SweepMetrics

	ready    atomic.Bool
	failures int

	now   func() time.Time
	after func(d time.Duration) <-chan time.Time
}

func NewJanitor(cfg Config, store SessionSweeper, log *slog.Logger) *Janitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.SweepTimeout <= 0 {
		cfg.SweepTimeout = 30 * time.Second
	}
	if cfg.Backoff == (Backoff{}) {
		cfg.Backoff = DefaultBackoff
	}
	if log == nil {
		log = slog.Default()
	}

	return &Janitor{
		cfg:     cfg,
		store:   store,
		log:     log,
		metrics: observability.NewSweepMetrics(),
		now:     time.Now,
		after:   time.After,
	}
}

func (j *Janitor) WithMetrics(p *observability.Prom) *Janitor {
	j.prom = p
	return j
}

func (j *Janitor) Metrics() *observability.SweepMetrics { return j.metrics }

func (j *Janitor) Ready() bool { return j.ready.Load() }

// Run sweeps once immediately and then on every tick until ctx is done.
// After a failed sweep the next attempt waits for the backoff delay
// instead of the interval.
func (j *Janitor) Run(ctx context.Context) error {
	j.ready.Store(true)
	defer j.ready.Store(false)

	j.log.Info("janitor started", "interval", j.cfg.Interval.String())

	for {
		wait := j.cfg.Interval
		if err := j.SweepOnce(ctx); err != nil {
			wait = j.cfg.Backoff.Delay(j.failures - 1)
		}

		select {
		case <-ctx.Done():
			j.log.Info("janitor received shutdown signal")
			return nil
		case <-j.after(wait):
		}
	}
}

// SweepOnce runs a single purge bounded by SweepTimeout.
func (j *Janitor) SweepOnce(ctx context.Context) error {
	sweepCtx, cancel := context.WithTimeout(ctx, j.cfg.SweepTimeout)
	defer cancel()

	start := time.Now()
	removed, err := j.store.DeleteExpired(sweepCtx, j.now().UTC())
	d := time.Since(start)

	j.metrics.ObserveRun(removed, d, err)

	result := "ok"
	if err != nil {
		result = "error"
	}
	if j.prom != nil {
		j.prom.SweepDuration.WithLabelValues(result).Observe(d.Seconds())
		if removed > 0 {
			j.prom.SessionsSwept.Add(float64(removed))
		}
	}

	if err != nil {
		j.failures++
		j.log.Error("session sweep failed",
			"err", err,
			"consecutive_failures", j.failures,
		)
		return err
	}

	j.failures = 0
	if removed > 0 {
		j.log.Info("expired sessions removed", "count", removed, "duration_ms", d.Milliseconds())
	}
	return nil
}
