package progress

import "time"

// now is stubbed in tests for deterministic timing.
var now = time.Now

// BatchStat describes throughput after one committed batch.
type BatchStat struct {
	BatchRows    int
	Processed    int
	BatchElapsed time.Duration
	Elapsed      time.Duration
	BatchRate    float64 // rows/sec for this batch alone
	Rate         float64 // cumulative rows/sec since start
}

// Summary is the final result of one strategy execution.
type Summary struct {
	Processed int
	Elapsed   time.Duration
	Rate      float64 // rows/sec over the whole run
}

// Tracker accumulates processed counts and derives instantaneous and
// cumulative rates. One tracker lives for exactly one strategy execution.
// All bookkeeping is O(1) per batch.
type Tracker struct {
	start     time.Time
	lastBatch time.Time
	processed int
	onBatch   func(BatchStat)
}

// NewTracker starts the clock. onBatch, if non-nil, is invoked after every
// Observe call with that batch's stats.
func NewTracker(onBatch func(BatchStat)) *Tracker {
	t := now()
	return &Tracker{
		start:     t,
		lastBatch: t,
		onBatch:   onBatch,
	}
}

// Observe records one committed batch of rows and returns its stats.
func (t *Tracker) Observe(rows int) BatchStat {
	ts := now()
	batchElapsed := ts.Sub(t.lastBatch)
	t.lastBatch = ts
	t.processed += rows

	stat := BatchStat{
		BatchRows:    rows,
		Processed:    t.processed,
		BatchElapsed: batchElapsed,
		Elapsed:      ts.Sub(t.start),
		BatchRate:    rate(rows, batchElapsed),
		Rate:         rate(t.processed, ts.Sub(t.start)),
	}
	if t.onBatch != nil {
		t.onBatch(stat)
	}
	return stat
}

// Processed returns the total rows observed so far.
func (t *Tracker) Processed() int {
	return t.processed
}

// Summarize closes out the run and returns its final throughput.
func (t *Tracker) Summarize() Summary {
	elapsed := now().Sub(t.start)
	return Summary{
		Processed: t.processed,
		Elapsed:   elapsed,
		Rate:      rate(t.processed, elapsed),
	}
}

func rate(rows int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(rows) / elapsed.Seconds()
}
