// Package motion turns raw analyzer features into stable, named motion
// signals for rendering code.
package motion

import (
	"math"

	"github.com/guidoenr/resonance/internal/analyzer"
)

// Snapshot holds the motion signals produced by the latest Update.
type Snapshot struct {
	Pulse           float64 `json:"pulse"`
	Impact          float64 `json:"impact"`
	Swell           float64 `json:"swell"`
	Breathe         float64 `json:"breathe"`
	LowMotion       float64 `json:"lowMotion"`
	MidMotion       float64 `json:"midMotion"`
	HighMotion      float64 `json:"highMotion"`
	ScaleSuggestion float64 `json:"scaleSuggestion"`
	ZoomSuggestion  float64 `json:"zoomSuggestion"`
}

const (
	pulseTrigger = 0.4
	maxDelta     = 0.25
	// absorbs float drift in the summed tick durations
	lockoutSlack = 1e-9
)

// twoPole is a cascade of two first-order low-pass filters.
type twoPole struct {
	a, b float64
}

func (f *twoPole) step(in, rateA, rateB, dt float64) float64 {
	f.a += (in - f.a) * lowpass(rateA, dt)
	f.b += (f.a - f.b) * lowpass(rateB, dt)
	return f.b
}

// rates holds every smoothness-dependent constant, recomputed on change.
type rates struct {
	lockout    float64 // seconds
	pulseDecay float64 // per 60 Hz tick
	pulseFast  float64 // 1/s
	pulseMed   float64
	pulseGain  float64

	pulseAccent float64 // share of the trigger height taken from kick strength

	impactInfluence float64
	impactAttack    float64
	impactRelease   float64

	swellA, swellB float64
	bandA, bandB   float64

	scalePulse, scaleSwell, scaleBreathe float64
	zoomPulse, zoomSwell, zoomBreathe    float64
}

func ratesFor(s float64) rates {
	return rates{
		lockout:    lerp(0.150, 0.350, s),
		pulseDecay: lerp(0.92, 0.98, s),
		pulseFast:  lerp(30, 8, s),
		pulseMed:   lerp(15, 4, s),
		pulseGain:  math.Pow(0.3, s),

		pulseAccent: lerp(1, 0, s),

		impactInfluence: lerp(1.0, 0.2, s),
		impactAttack:    lerp(40, 15, s),
		impactRelease:   lerp(6, 1.5, s),

		swellA: lerp(1.2, 0.3, s),
		swellB: lerp(0.8, 0.2, s),
		bandA:  lerp(12, 3, s),
		bandB:  lerp(8, 2, s),

		scalePulse:   lerp(0.25, 0.12, s),
		scaleSwell:   lerp(0.15, 0.20, s),
		scaleBreathe: lerp(0.03, 0.06, s),
		zoomPulse:    lerp(0.08, 0.04, s),
		zoomSwell:    lerp(0.20, 0.30, s),
		zoomBreathe:  lerp(0.02, 0.04, s),
	}
}

// Coordinator converts FeatureSnapshots into a motion Snapshot. It is not
// safe for concurrent use.
type Coordinator struct {
	smoothness float64
	r          rates

	sincePulse float64
	pulseRaw   float64
	pulse      twoPole
	triggers   int

	impact float64
	swell  twoPole
	phase  float64

	low, mid, high twoPole

	snap Snapshot
}

// New returns a Coordinator at rest with the given smoothness in [0, 1].
func New(smoothness float64) *Coordinator {
	c := &Coordinator{}
	c.SetSmoothness(smoothness)
	c.Reset()
	return c
}

// SetSmoothness updates the single control that scales every rate:
// 0 is reactive, 1 is ultra smooth.
func (c *Coordinator) SetSmoothness(s float64) {
	if math.IsNaN(s) {
		s = 0
	}
	c.smoothness = clamp01(s)
	c.r = ratesFor(c.smoothness)
}

// Smoothness returns the current smoothness setting.
func (c *Coordinator) Smoothness() float64 {
	return c.smoothness
}

// Reset returns every accumulator to rest.
func (c *Coordinator) Reset() {
	c.sincePulse = math.Inf(1)
	c.pulseRaw = 0
	c.pulse = twoPole{}
	c.triggers = 0
	c.impact = 0
	c.swell = twoPole{}
	c.phase = 0
	c.low, c.mid, c.high = twoPole{}, twoPole{}, twoPole{}
	c.snap = Snapshot{ScaleSuggestion: 1, ZoomSuggestion: 1}
}

// Update advances the motion state by dt seconds using the latest features.
// A non-positive dt leaves every accumulator untouched.
func (c *Coordinator) Update(f *analyzer.FeatureSnapshot, dt float64) {
	dt = clampFloat(finite(dt), 0, maxDelta)
	if dt <= 0 {
		return
	}
	if f == nil {
		f = &analyzer.FeatureSnapshot{}
	}
	r := &c.r

	// pulse: lockout-gated kick trigger, decayed, then two low-pass stages.
	// Smoother settings flatten accents so every trigger lands at full height.
	c.sincePulse += dt
	kick := finite(f.OnsetKick)
	if kick > pulseTrigger && c.sincePulse > r.lockout+lockoutSlack {
		height := 1 - r.pulseAccent*(1-clamp01(kick))
		c.pulseRaw = math.Max(c.pulseRaw, height)
		c.sincePulse = 0
		c.triggers++
	}
	c.pulseRaw *= math.Pow(r.pulseDecay, dt*60)
	pulse := c.pulse.step(c.pulseRaw*r.pulseGain, r.pulseFast, r.pulseMed, dt)

	// impact: fast attack, slow release over snare and hihat onsets
	target := (0.65*finite(f.OnsetSnare) + 0.35*finite(f.OnsetHihat)) * r.impactInfluence
	rate := r.impactRelease
	if target > c.impact {
		rate = r.impactAttack
	}
	c.impact += (target - c.impact) * lowpass(rate, dt)

	// swell: coarse song intensity
	level := 0.7*finite(f.Energy) + 0.3*math.Min(finite(f.RMSSmooth)*2, 1.5)
	swell := c.swell.step(level, r.swellA, r.swellB, dt)

	// breathe: quarter-note-rate oscillator, scaled by swell
	bpm := finite(f.BPMSmooth)
	if bpm <= 0 {
		bpm = analyzer.DefaultBPM
	}
	c.phase = math.Mod(c.phase+bpm/60*0.25*dt*2*math.Pi, 2*math.Pi)
	breathe := math.Sin(c.phase) * swell

	low := c.low.step(blend(f, analyzer.SubBass, analyzer.Bass, 0.4), r.bandA, r.bandB, dt)
	mid := c.mid.step(blend(f, analyzer.LowMid, analyzer.Mid, 0.5), r.bandA, r.bandB, dt)
	high := c.high.step(blend(f, analyzer.HighMid, analyzer.High, 0.5), r.bandA, r.bandB, dt)

	c.snap = Snapshot{
		Pulse:           pulse,
		Impact:          c.impact,
		Swell:           swell,
		Breathe:         breathe,
		LowMotion:       low,
		MidMotion:       mid,
		HighMotion:      high,
		ScaleSuggestion: 1 + pulse*r.scalePulse + swell*r.scaleSwell + breathe*r.scaleBreathe,
		ZoomSuggestion:  1 + swell*r.zoomSwell - pulse*r.zoomPulse + breathe*r.zoomBreathe,
	}
}

// Snapshot returns the motion signals of the latest Update.
func (c *Coordinator) Snapshot() Snapshot {
	return c.snap
}

func blend(f *analyzer.FeatureSnapshot, a, b analyzer.NamedBand, wa float64) float64 {
	return finite(f.Envelope(a))*wa + finite(f.Envelope(b))*(1-wa)
}

// lowpass is the one-pole coefficient for a rate in 1/s over dt seconds.
func lowpass(rate, dt float64) float64 {
	return 1 - math.Exp(-rate*dt)
}

func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	return clampFloat(v, 0, 1)
}

func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
