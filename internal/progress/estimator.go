package progress

import (
	"math"
	"sync"
)

const (
	// DefaultRootBaseline is the assumed file count per selected root before
	// any files are seen. It is generous so early percentages stay low.
	DefaultRootBaseline = 500_000

	growThreshold = 0.5
	growFactor    = 1.5
	ceilingRatio  = 0.95
)

// Estimator tracks scanned files against an adaptively rescaled estimate of
// the total. It is safe for concurrent use.
type Estimator struct {
	mu       sync.Mutex
	scanned  int64
	estimate float64
	reported float64 // high-water mark of the displayed ratio
	finished bool
}

// NewEstimator creates an Estimator for the given number of roots. A root
// count or baseline below one is treated as one and DefaultRootBaseline.
func NewEstimator(roots int, baseline int64) *Estimator {
	if roots < 1 {
		roots = 1
	}
	if baseline < 1 {
		baseline = DefaultRootBaseline
	}
	return &Estimator{estimate: float64(roots) * float64(baseline)}
}

// Observe records n newly seen files and rescales the estimate. It returns
// the current scanned count and estimate.
func (e *Estimator) Observe(n int) (scanned, estimate int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := 0; i < n; i++ {
		e.scanned++
		s := float64(e.scanned)
		if s > e.estimate*growThreshold {
			e.estimate *= growFactor
		}
		if !e.finished && s/e.estimate > ceilingRatio {
			e.estimate = s / ceilingRatio
		}
	}

	e.track()
	return e.scanned, int64(math.Ceil(e.estimate))
}

// track raises the reported ratio; the caller must hold mu
func (e *Estimator) track() {
	ratio := float64(e.scanned) / e.estimate
	if ratio > ceilingRatio {
		ratio = ceilingRatio
	}
	if ratio > e.reported {
		e.reported = ratio
	}
}

// Finish marks the scan complete; Percent reports 100 from then on
func (e *Estimator) Finish() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finished = true
}

// Percent returns the displayed completion in [0, 100]. It never decreases
// and stays at or below 95 until Finish is called.
func (e *Estimator) Percent() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished {
		return 100
	}
	return e.reported * 100
}

// Snapshot returns the scanned count and the rounded estimate
func (e *Estimator) Snapshot() (scanned, estimate int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scanned, int64(math.Ceil(e.estimate))
}

// Scanned returns the number of files observed so far
func (e *Estimator) Scanned() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scanned
}
