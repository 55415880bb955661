package tabular

import "sync"

// A Progress callback receives the completed fraction of an appender
// operation. Observed values are monotonically nondecreasing within [0, 1]
// and end at exactly 1.0 when the operation succeeds.
type Progress func(p float64)

// monotonic wraps progress so the reported sequence never decreases. A nil
// progress stays nil.
func monotonic(progress Progress) Progress {
	if progress == nil {
		return nil
	}
	last := -1.0
	return func(p float64) {
		if p < last {
			return
		}
		last = p
		progress(p)
	}
}

// A progressAggregator combines per-column progress fractions into a single
// nondecreasing sequence, apportioning the range evenly across columns. It
// is safe for use from the appender's parallel column tasks.
type progressAggregator struct {
	mu       sync.Mutex
	progress Progress
	parts    []float64
	last     float64
}

func newProgressAggregator(progress Progress, parts int) *progressAggregator {
	return &progressAggregator{progress: progress, parts: make([]float64, parts)}
}

// column returns the progress callback of part i, or nil when no callback
// is attached.
func (a *progressAggregator) column(i int) Progress {
	if a.progress == nil {
		return nil
	}
	return func(p float64) { a.report(i, p) }
}

func (a *progressAggregator) report(i int, p float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p > a.parts[i] {
		a.parts[i] = p
	}
	sum := 0.0
	for _, part := range a.parts {
		sum += part
	}
	combined := sum / float64(len(a.parts))
	if combined > a.last {
		a.last = combined
		a.progress(combined)
	}
}

// finish reports the terminal 1.0 if it was not reached through rounding.
func (a *progressAggregator) finish() {
	if a.progress == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last < 1 {
		a.last = 1
		a.progress(1)
	}
}
