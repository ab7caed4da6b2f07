package analyzer

import (
	"math"
	"testing"
)

func TestRingMedianMAD(t *testing.T) {
	r := newRing(8)
	for _, v := range []float64{5, 1, 3, 2, 4} {
		r.push(v)
	}
	median, mad := r.medianMAD()
	if median != 3 {
		t.Fatalf("median=%f want 3", median)
	}
	if mad != 1 {
		t.Fatalf("mad=%f want 1", mad)
	}
	if got := r.threshold(2); math.Abs(got-5) > 1e-9 {
		t.Fatalf("threshold=%f want 5", got)
	}
}

func TestRingMedianEvenCount(t *testing.T) {
	r := newRing(8)
	for _, v := range []float64{4, 1, 3, 2} {
		r.push(v)
	}
	median, mad := r.medianMAD()
	if median != 2.5 {
		t.Fatalf("median=%f want 2.5", median)
	}
	// deviations 1.5 0.5 0.5 1.5
	if mad != 1 {
		t.Fatalf("mad=%f want 1", mad)
	}
	if got := r.threshold(2); math.Abs(got-4.5) > 1e-9 {
		t.Fatalf("threshold=%f want 4.5", got)
	}
}

func TestRingDiscardsOldest(t *testing.T) {
	r := newRing(3)
	for v := 1.0; v <= 5; v++ {
		r.push(v)
	}
	if r.len() != 3 {
		t.Fatalf("len=%d want 3", r.len())
	}
	median, _ := r.medianMAD()
	if median != 4 {
		t.Fatalf("median=%f want 4 (history 3,4,5)", median)
	}
}

func TestRingEmpty(t *testing.T) {
	r := newRing(4)
	if median, mad := r.medianMAD(); median != 0 || mad != 0 {
		t.Fatalf("empty ring: median=%f mad=%f", median, mad)
	}
	r.push(1)
	r.reset()
	if r.len() != 0 {
		t.Fatalf("reset ring still holds %d values", r.len())
	}
}
