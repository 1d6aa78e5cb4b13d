package pipeline

import (
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

type timing struct {
	at time.Time
	ms int64
}

// TimingSnapshot aggregates report generation times in the window.
type TimingSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
}

// Timings keeps the durations of completed reports for a rolling window.
type Timings struct {
	mu      sync.Mutex
	samples []timing
	window  time.Duration
}

func NewTimings(window time.Duration) *Timings {
	if window <= 0 {
		window = time.Hour
	}
	return &Timings{window: window}
}

// Record adds one duration; negative values count as zero.
func (t *Timings) Record(d time.Duration) {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked(now)
	t.samples = append(t.samples, timing{at: now, ms: max(d.Milliseconds(), 0)})
}

func (t *Timings) Snapshot() TimingSnapshot {
	t.mu.Lock()
	t.pruneLocked(time.Now())
	values := lo.Map(t.samples, func(s timing, _ int) int64 { return s.ms })
	t.mu.Unlock()

	if len(values) == 0 {
		return TimingSnapshot{}
	}
	slices.Sort(values)
	return TimingSnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(lo.Sum(values)) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
	}
}

func (t *Timings) pruneLocked(now time.Time) {
	cutoff := now.Add(-t.window)
	t.samples = slices.DeleteFunc(t.samples, func(s timing) bool {
		return s.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	i := int(rank)
	if i+1 >= len(sorted) {
		return float64(sorted[i])
	}
	lower, upper := float64(sorted[i]), float64(sorted[i+1])
	return lower + (upper-lower)*(rank-float64(i))
}
