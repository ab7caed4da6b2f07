package motion

import (
	"math"
	"math/rand"
	"testing"

	"github.com/guidoenr/resonance/internal/analyzer"
	"gonum.org/v1/gonum/stat"
)

const tick = 1.0 / 60

func features() *analyzer.FeatureSnapshot {
	return &analyzer.FeatureSnapshot{BPMSmooth: analyzer.DefaultBPM, RootNote: -1}
}

func TestPulseLockout(t *testing.T) {
	c := New(0)
	f := features()
	f.OnsetKick = 1.0
	for i := 0; i < 60; i++ {
		c.Update(f, tick)
	}
	// one trigger per 150 ms window, the first at t=0
	if c.triggers != 6 {
		t.Fatalf("triggers=%d want 6 (not 60)", c.triggers)
	}
}

func TestPulseLockoutScalesWithSmoothness(t *testing.T) {
	c := New(1)
	f := features()
	f.OnsetKick = 1.0
	for i := 0; i < 60; i++ {
		c.Update(f, tick)
	}
	if c.triggers != 3 {
		t.Fatalf("triggers=%d want 3 with a 350 ms lockout", c.triggers)
	}
}

func TestPulseIgnoresWeakKick(t *testing.T) {
	c := New(0)
	f := features()
	f.OnsetKick = 0.4
	for i := 0; i < 60; i++ {
		c.Update(f, tick)
	}
	if c.triggers != 0 || c.Snapshot().Pulse != 0 {
		t.Fatalf("weak kick triggered: triggers=%d pulse=%f", c.triggers, c.Snapshot().Pulse)
	}
}

func pulseVariance(smoothness float64) float64 {
	rng := rand.New(rand.NewSource(42))
	c := New(smoothness)
	f := features()
	var samples []float64
	for i := 0; i < 60*120; i++ {
		f.OnsetKick = rng.Float64() * 1.5
		c.Update(f, tick)
		if i >= 60*2 {
			samples = append(samples, c.Snapshot().Pulse)
		}
	}
	return stat.Variance(samples, nil)
}

func TestSmoothnessReducesPulseVariance(t *testing.T) {
	prev := math.Inf(1)
	for i := 0; i <= 20; i++ {
		s := float64(i) / 20
		v := pulseVariance(s)
		if !(v < prev) {
			t.Fatalf("smoothness=%.2f variance=%g not below %g", s, v, prev)
		}
		prev = v
	}
}

func TestPulseDecaysWithoutKicks(t *testing.T) {
	c := New(0)
	f := features()
	f.OnsetKick = 1.0
	c.Update(f, tick)
	f.OnsetKick = 0
	peak := 0.0
	for i := 0; i < 30; i++ {
		c.Update(f, tick)
		peak = math.Max(peak, c.Snapshot().Pulse)
	}
	if peak <= 0 {
		t.Fatalf("pulse never rose")
	}
	for i := 0; i < 600; i++ {
		c.Update(f, tick)
	}
	if p := c.Snapshot().Pulse; p > 0.01 {
		t.Fatalf("pulse=%f did not decay", p)
	}
}

func TestImpactInfluenceShrinksWithSmoothness(t *testing.T) {
	run := func(s float64) float64 {
		c := New(s)
		f := features()
		f.OnsetSnare = 1.0
		f.OnsetHihat = 1.0
		for i := 0; i < 120; i++ {
			c.Update(f, tick)
		}
		return c.Snapshot().Impact
	}
	reactive, smooth := run(0), run(1)
	if math.Abs(reactive-1.0) > 0.01 {
		t.Fatalf("reactive impact=%f want ~1", reactive)
	}
	if math.Abs(smooth-0.2) > 0.01 {
		t.Fatalf("smooth impact=%f want ~0.2", smooth)
	}
}

func TestImpactFastAttackSlowRelease(t *testing.T) {
	c := New(0)
	f := features()
	f.OnsetSnare = 1.0
	f.OnsetHihat = 1.0
	c.Update(f, tick)
	rise := c.Snapshot().Impact
	f.OnsetSnare, f.OnsetHihat = 0, 0
	c.Update(f, tick)
	fall := rise - c.Snapshot().Impact
	if fall >= rise {
		t.Fatalf("release step %f not slower than attack step %f", fall, rise)
	}
}

func TestSwellIgnoresSingleBeat(t *testing.T) {
	c := New(0)
	f := features()
	f.Energy = 1.0
	c.Update(f, tick)
	if s := c.Snapshot().Swell; s > 0.01 {
		t.Fatalf("swell reacted within one tick: %f", s)
	}
	for i := 0; i < 60*10; i++ {
		c.Update(f, tick)
	}
	if s := c.Snapshot().Swell; s < 0.6 {
		t.Fatalf("swell did not follow sustained energy: %f", s)
	}
}

func TestBreatheFollowsTempo(t *testing.T) {
	c := New(0)
	f := features()
	f.Energy = 1.0
	for i := 0; i < 60*10; i++ {
		c.Update(f, tick)
	}
	// at 120 BPM the quarter-note-rate oscillator has a 2 s period
	start := c.phase
	for i := 0; i < 60; i++ {
		c.Update(f, tick)
	}
	advance := math.Mod(c.phase-start+2*math.Pi, 2*math.Pi)
	if math.Abs(advance-math.Pi) > 1e-6 {
		t.Fatalf("phase advanced %f in 1 s, want pi", advance)
	}
	if b := math.Abs(c.Snapshot().Breathe); b > c.Snapshot().Swell+1e-9 {
		t.Fatalf("breathe %f exceeds swell %f", b, c.Snapshot().Swell)
	}
}

func TestBandMotionFollowsEnvelopes(t *testing.T) {
	c := New(0.5)
	f := features()
	f.Envelopes[analyzer.SubBass] = 1
	f.Envelopes[analyzer.Bass] = 1
	for i := 0; i < 600; i++ {
		c.Update(f, tick)
	}
	s := c.Snapshot()
	if math.Abs(s.LowMotion-1) > 0.01 {
		t.Fatalf("lowMotion=%f want ~1", s.LowMotion)
	}
	if s.MidMotion != 0 || s.HighMotion != 0 {
		t.Fatalf("mid=%f high=%f want 0", s.MidMotion, s.HighMotion)
	}
}

func TestRestingSuggestions(t *testing.T) {
	c := New(0.3)
	s := c.Snapshot()
	if s.ScaleSuggestion != 1 || s.ZoomSuggestion != 1 {
		t.Fatalf("resting scale=%f zoom=%f want 1", s.ScaleSuggestion, s.ZoomSuggestion)
	}
	c.Update(features(), tick)
	s = c.Snapshot()
	if s.ScaleSuggestion != 1 || s.ZoomSuggestion != 1 {
		t.Fatalf("silent scale=%f zoom=%f want 1", s.ScaleSuggestion, s.ZoomSuggestion)
	}
}

func TestOutputsStayFinite(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	c := New(0.5)
	f := features()
	for i := 0; i < 2000; i++ {
		f.OnsetKick = rng.Float64() * 1.5
		f.OnsetSnare = rng.Float64() * 1.5
		f.OnsetHihat = rng.Float64() * 1.5
		f.Energy = rng.Float64() * 1.5
		f.RMSSmooth = rng.Float64()
		f.BPMSmooth = 60 + rng.Float64()*140
		for n := range f.Envelopes {
			f.Envelopes[n] = rng.Float64() * 1.5
		}
		if i%97 == 0 {
			f.Energy = math.NaN()
			f.BPMSmooth = math.Inf(1)
		}
		c.SetSmoothness(rng.Float64())
		c.Update(f, rng.Float64()*0.05)

		s := c.Snapshot()
		for name, v := range map[string]float64{
			"pulse": s.Pulse, "impact": s.Impact, "swell": s.Swell, "breathe": s.Breathe,
			"low": s.LowMotion, "mid": s.MidMotion, "high": s.HighMotion,
			"scale": s.ScaleSuggestion, "zoom": s.ZoomSuggestion,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 3 {
				t.Fatalf("step %d: %s=%f", i, name, v)
			}
		}
	}
	c.Update(nil, tick)
}

func TestZeroDeltaHoldsState(t *testing.T) {
	c := New(0.5)
	f := features()
	f.Energy = 0.8
	for i := 0; i < 120; i++ {
		c.Update(f, tick)
	}
	before := c.Snapshot()
	c.Update(f, 0)
	if c.Snapshot() != before {
		t.Fatalf("dt=0 changed motion: %+v -> %+v", before, c.Snapshot())
	}
}

func TestZeroDeltaIgnoresKick(t *testing.T) {
	c := New(0)
	f := features()
	f.OnsetKick = 1.0
	c.Update(f, 0)
	c.Update(f, math.NaN())
	if c.triggers != 0 {
		t.Fatalf("kick latched at dt=0: triggers=%d", c.triggers)
	}
	f.OnsetKick = 0
	for i := 0; i < 5; i++ {
		c.Update(f, tick)
	}
	if p := c.Snapshot().Pulse; p != 0 {
		t.Fatalf("pulse=%f after a dt=0 kick, want 0", p)
	}
}
