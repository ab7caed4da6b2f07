package analyzer

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ring is a fixed-capacity history of recent values. Once full, the oldest
// entry is overwritten.
type ring struct {
	values  []float64
	next    int
	count   int
	scratch []float64
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{
		values:  make([]float64, capacity),
		scratch: make([]float64, 0, capacity),
	}
}

func (r *ring) push(v float64) {
	r.values[r.next] = v
	r.next = (r.next + 1) % len(r.values)
	if r.count < len(r.values) {
		r.count++
	}
}

func (r *ring) len() int { return r.count }

func (r *ring) reset() {
	r.next = 0
	r.count = 0
}

// medianMAD returns the median and the median absolute deviation of the
// stored values.
func (r *ring) medianMAD() (float64, float64) {
	if r.count == 0 {
		return 0, 0
	}
	buf := r.scratch[:0]
	buf = append(buf, r.values[:r.count]...)
	sort.Float64s(buf)
	median := sortedMedian(buf)

	for i, v := range buf {
		buf[i] = math.Abs(v - median)
	}
	sort.Float64s(buf)
	mad := sortedMedian(buf)
	r.scratch = buf
	return median, mad
}

// sortedMedian returns the median of sorted, averaging the two middle values
// of an even-length slice. The empirical quantile alone yields the lower one.
func sortedMedian(sorted []float64) float64 {
	m := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	if n := len(sorted); n%2 == 0 {
		m = (m + sorted[n/2]) / 2
	}
	return m
}

// threshold returns median + k*MAD of the history.
func (r *ring) threshold(k float64) float64 {
	median, mad := r.medianMAD()
	return median + k*mad
}
