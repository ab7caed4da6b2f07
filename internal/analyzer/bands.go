package analyzer

import "math"

// NumBands is the fixed number of log-spaced analysis bands.
const NumBands = 64

const (
	defaultMinHz = 20.0
	defaultMaxHz = 20_000.0

	binPowerCurve  = 1.2
	maxAttackCoeff = 0.7
	attackBoost    = 2.5
	highFreqWeight = 0.5
)

// ComputeLogBandEdges returns n+1 logarithmically spaced frequencies between lo
// and hi. The first edge is exactly lo and the last exactly hi.
func ComputeLogBandEdges(n int, lo, hi float64) []float64 {
	if n < 1 {
		n = 1
	}
	if !(lo > 0) || math.IsInf(lo, 0) {
		lo = defaultMinHz
	}
	if !(hi > lo) || math.IsInf(hi, 0) {
		hi = lo * 2
	}
	edges := make([]float64, n+1)
	ratio := math.Log(hi / lo)
	for i := range edges {
		edges[i] = lo * math.Exp(ratio*float64(i)/float64(n))
	}
	edges[0] = lo
	edges[n] = hi
	return edges
}

type binRange struct {
	lo, hi int
}

// bandMapper smooths raw FFT bins and folds them into NumBands log bands.
type bandMapper struct {
	sampleRate float64
	fftSize    int
	minHz      float64
	maxHz      float64

	edges   []float64
	centers [NumBands]float64
	ranges  [NumBands]binRange

	smoothed []float64
}

func newBandMapper(sampleRate float64, fftSize int, minHz, maxHz float64) *bandMapper {
	m := &bandMapper{minHz: minHz, maxHz: maxHz}
	m.recompute(sampleRate, fftSize)
	return m
}

// binCount returns the number of usable frequency bins (fftSize/2).
func (m *bandMapper) binCount() int {
	return m.fftSize / 2
}

// binHz returns the width of one FFT bin.
func (m *bandMapper) binHz() float64 {
	return m.sampleRate / float64(m.fftSize)
}

func (m *bandMapper) recompute(sampleRate float64, fftSize int) {
	if sampleRate <= 0 {
		sampleRate = 44_100
	}
	if fftSize < 2 {
		fftSize = 2048
	}
	m.sampleRate = sampleRate
	m.fftSize = fftSize

	hi := math.Min(m.maxHz, sampleRate/2)
	m.edges = ComputeLogBandEdges(NumBands, m.minHz, hi)

	bins := m.binCount()
	width := m.binHz()
	for b := 0; b < NumBands; b++ {
		lo := clampInt(int(math.Floor(m.edges[b]/width)), 0, bins-1)
		top := clampInt(int(math.Floor(m.edges[b+1]/width)), 0, bins)
		if top <= lo {
			top = lo + 1
		}
		m.ranges[b] = binRange{lo: lo, hi: top}
		m.centers[b] = math.Sqrt(m.edges[b] * m.edges[b+1])
	}

	if len(m.smoothed) != bins {
		m.smoothed = make([]float64, bins)
	}
}

// smoothBins runs the adaptive attack/release filter over every raw bin.
// alpha is defined for a 60 Hz tick and rescaled by dt.
func (m *bandMapper) smoothBins(freq []uint8, alpha, dt float64) {
	attack := frameCoeff(math.Min(alpha*attackBoost, maxAttackCoeff), dt)
	release := frameCoeff(alpha, dt)

	n := min(len(freq), len(m.smoothed))
	for i := 0; i < n; i++ {
		v := math.Pow(float64(freq[i])/255.0, binPowerCurve)
		cur := m.smoothed[i]
		if v > cur {
			cur += (v - cur) * attack
		} else {
			cur += (v - cur) * release
		}
		m.smoothed[i] = cur
	}
	for i := n; i < len(m.smoothed); i++ {
		m.smoothed[i] -= m.smoothed[i] * release
	}
}

// mapBands averages the smoothed bins of each band into out, with a mild
// boost for higher bins.
func (m *bandMapper) mapBands(out *[NumBands]float64) {
	total := float64(len(m.smoothed))
	for b := 0; b < NumBands; b++ {
		r := m.ranges[b]
		sum := 0.0
		for i := r.lo; i < r.hi; i++ {
			weight := 1.0 + float64(i)/total*highFreqWeight
			sum += m.smoothed[i] * weight
		}
		out[b] = sum / float64(r.hi-r.lo)
	}
}

func (m *bandMapper) reset() {
	for i := range m.smoothed {
		m.smoothed[i] = 0
	}
}

// frameCoeff rescales a per-60Hz-tick smoothing coefficient to dt seconds.
func frameCoeff(k, dt float64) float64 {
	if k <= 0 {
		return 0
	}
	if k >= 1 {
		return 1
	}
	return 1 - math.Pow(1-k, dt*60)
}

// frameDecay rescales a per-60Hz-tick multiplicative decay to dt seconds.
func frameDecay(factor, dt float64) float64 {
	return math.Pow(factor, dt*60)
}
