package worker

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff grows the delay between failed sweeps. attempt=0 => Base.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
	// Jitter is the upper bound of the random delay added on top.
	Jitter time.Duration
}

var DefaultBackoff = Backoff{
	Base:   2 * time.Second,
	Max:    5 * time.Minute,
	Jitter: 250 * time.Millisecond,
}

func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := b.Max
	if f := float64(b.Base) * math.Pow(2, float64(attempt)); f < float64(b.Max) {
		delay = time.Duration(f)
	}

	if b.Jitter > 0 {
		delay += rand.N(b.Jitter)
	}
	return delay
}
