package analyzer

import (
	"math"
	"testing"
)

func TestComputeLogBandEdges(t *testing.T) {
	cases := []struct {
		n      int
		lo, hi float64
	}{
		{64, 20, 20000},
		{64, 20, 22050},
		{8, 100, 200},
		{1, 30, 4000},
	}
	for _, tc := range cases {
		edges := ComputeLogBandEdges(tc.n, tc.lo, tc.hi)
		if len(edges) != tc.n+1 {
			t.Fatalf("n=%d: got %d edges want %d", tc.n, len(edges), tc.n+1)
		}
		if math.Abs(edges[0]-tc.lo) > 1e-9 {
			t.Fatalf("n=%d: first edge %f want %f", tc.n, edges[0], tc.lo)
		}
		if math.Abs(edges[tc.n]-tc.hi) > 1e-9 {
			t.Fatalf("n=%d: last edge %f want %f", tc.n, edges[tc.n], tc.hi)
		}
		for i := 1; i < len(edges); i++ {
			if edges[i] <= edges[i-1] {
				t.Fatalf("n=%d: edges not increasing at %d: %f <= %f", tc.n, i, edges[i], edges[i-1])
			}
		}
	}
}

func TestComputeLogBandEdgesDegenerateInput(t *testing.T) {
	edges := ComputeLogBandEdges(0, -5, -10)
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}
	if !(edges[1] > edges[0]) || edges[0] <= 0 {
		t.Fatalf("expected positive increasing edges, got %v", edges)
	}
}

func TestBandMapperRangesCoverBins(t *testing.T) {
	m := newBandMapper(44_100, 2048, defaultMinHz, defaultMaxHz)
	bins := m.binCount()
	for b, r := range m.ranges {
		if r.lo < 0 || r.hi > bins || r.hi <= r.lo {
			t.Fatalf("band %d has invalid range %+v (bins=%d)", b, r, bins)
		}
	}
	if m.edges[NumBands] > 22_050 {
		t.Fatalf("last edge above nyquist: %f", m.edges[NumBands])
	}

	m.recompute(48_000, 4096)
	if len(m.smoothed) != 2048 {
		t.Fatalf("smoothed bins not resized: %d", len(m.smoothed))
	}
}

func TestSmoothBinsFastAttackSlowRelease(t *testing.T) {
	m := newBandMapper(44_100, 64, defaultMinHz, defaultMaxHz)
	loud := make([]uint8, 32)
	quiet := make([]uint8, 32)
	for i := range loud {
		loud[i] = 255
	}

	m.smoothBins(loud, 0.2, 1.0/60)
	rise := m.smoothed[0]
	if math.Abs(rise-0.5) > 1e-9 {
		t.Fatalf("attack step=%f want 0.5", rise)
	}

	m.smoothBins(quiet, 0.2, 1.0/60)
	fall := rise - m.smoothed[0]
	if fall >= rise {
		t.Fatalf("release step %f should be slower than attack step %f", fall, rise)
	}
}

func TestAttackCoefficientIsCapped(t *testing.T) {
	m := newBandMapper(44_100, 64, defaultMinHz, defaultMaxHz)
	loud := make([]uint8, 32)
	for i := range loud {
		loud[i] = 255
	}
	m.smoothBins(loud, 0.4, 1.0/60)
	if math.Abs(m.smoothed[0]-maxAttackCoeff) > 1e-9 {
		t.Fatalf("attack=%f want cap %f", m.smoothed[0], maxAttackCoeff)
	}
}

func TestMapBandsHighFrequencyWeighting(t *testing.T) {
	m := newBandMapper(44_100, 2048, defaultMinHz, defaultMaxHz)
	for i := range m.smoothed {
		m.smoothed[i] = 1
	}
	var bands [NumBands]float64
	m.mapBands(&bands)
	if bands[NumBands-1] <= bands[0] {
		t.Fatalf("expected top band boosted: low=%f high=%f", bands[0], bands[NumBands-1])
	}
	for b, v := range bands {
		if v < 1 || v > 1.5 {
			t.Fatalf("band %d=%f outside [1,1.5] for unit input", b, v)
		}
	}
}
