// Package params maps motion signals onto the knobs the renderers read.
package params

import (
	"math"

	"github.com/guidoenr/resonance/internal/analyzer"
	"github.com/guidoenr/resonance/internal/motion"
)

// Parameters are the visual knobs consumed by the renderers.
type Parameters struct {
	Time           float64
	Speed          float64
	Frequency      float64
	Amplitude      float64
	Scale          float64
	Zoom           float64
	Hue            float64 // radians, follows the root note
	ColorShift     float64
	Brightness     float64
	Contrast       float64
	Saturation     float64
	Gamma          float64
	Vignette       float64
	Distortion     float64
	NoiseStrength  float64
	GlyphSharpness float64
	Pattern        string
	ColorMode      string
}

const (
	defaultFrequency  = 6.0
	defaultAmplitude  = 0.4
	defaultSpeed      = 0.05
	defaultBrightness = 0.6
	defaultContrast   = 0.8
	defaultSaturation = 0.8
	defaultVignette   = 0.25
	defaultDistortion = 0.35

	silenceRMS    = 0.01
	silenceEnergy = 0.02

	// follow rates in 1/s
	fastFollow = 20.0
	midFollow  = 8.0
	slowFollow = 2.0
	hueFollow  = 1.5
)

// Defaults returns calm resting parameters.
func Defaults() Parameters {
	return Parameters{
		Speed:          defaultSpeed,
		Frequency:      defaultFrequency,
		Amplitude:      defaultAmplitude,
		Scale:          1,
		Zoom:           1,
		Brightness:     defaultBrightness,
		Contrast:       defaultContrast,
		Saturation:     defaultSaturation,
		Gamma:          1,
		Vignette:       defaultVignette,
		Distortion:     defaultDistortion,
		GlyphSharpness: 1,
		Pattern:        "plasma",
		ColorMode:      "chromatic",
	}
}

// UpdateTime advances the pattern clock by dt scaled by Speed.
func (p *Parameters) UpdateTime(dt float64) {
	if dt > 0 {
		p.Time += dt * p.Speed
	}
}

// ApplyMotion moves the parameters toward the targets implied by the motion
// snapshot. Silent input decays everything back toward Defaults.
func (p *Parameters) ApplyMotion(m motion.Snapshot, f *analyzer.FeatureSnapshot, dt float64) {
	if dt <= 0 {
		return
	}
	if isSilent(f) {
		p.applySilenceDecay(dt)
		return
	}

	p.Scale = m.ScaleSuggestion
	p.Zoom = m.ZoomSuggestion

	p.Amplitude = follow(p.Amplitude, defaultAmplitude+m.LowMotion*0.8+m.Pulse*0.4, fastFollow, dt)
	p.Frequency = follow(p.Frequency, defaultFrequency*(1+m.MidMotion*0.5), midFollow, dt)
	p.Speed = follow(p.Speed, 0.08+m.Swell*0.5+m.HighMotion*0.1, slowFollow, dt)

	p.Distortion = follow(p.Distortion, defaultDistortion+m.Impact*0.8, fastFollow, dt)
	p.NoiseStrength = clamp(m.Impact*0.5+m.HighMotion*0.2, 0, 1)
	p.GlyphSharpness = follow(p.GlyphSharpness, 0.9+m.Impact*0.5, midFollow, dt)

	p.Brightness = clamp(defaultBrightness+m.Swell*0.5+m.Pulse*0.4, 0, 2)
	p.Contrast = follow(p.Contrast, defaultContrast+m.LowMotion*0.3, midFollow, dt)
	p.Vignette = follow(p.Vignette, defaultVignette+m.Pulse*0.15, midFollow, dt)
	p.Gamma = follow(p.Gamma, 0.9+m.Swell*0.2, slowFollow, dt)

	target := clamp(defaultSaturation+m.Swell*0.3+m.Impact*0.2, 0, 1.5)
	rate := slowFollow
	if target > p.Saturation {
		rate = midFollow
	}
	p.Saturation = follow(p.Saturation, target, rate, dt)

	if f.RootNote >= 0 {
		p.Hue = followAngle(p.Hue, float64(f.RootNote)/12*2*math.Pi, hueFollow, dt)
	}
	p.ColorShift = math.Mod(p.ColorShift+(m.HighMotion*0.3+m.Pulse*0.2)*dt*60*0.05, 2*math.Pi)
}

func isSilent(f *analyzer.FeatureSnapshot) bool {
	return f == nil || (f.RMSSmooth < silenceRMS && f.Energy < silenceEnergy)
}

func (p *Parameters) applySilenceDecay(dt float64) {
	decay := math.Pow(0.92, dt*60)
	settle := func(v, rest float64) float64 { return v*decay + rest*(1-decay) }

	p.Speed *= math.Pow(0.88, dt*60)
	p.Amplitude = settle(p.Amplitude, defaultAmplitude)
	p.Frequency = settle(p.Frequency, defaultFrequency)
	p.Scale = settle(p.Scale, 1)
	p.Zoom = settle(p.Zoom, 1)
	p.Brightness = settle(p.Brightness, defaultBrightness)
	p.Contrast = settle(p.Contrast, defaultContrast)
	p.Saturation = settle(p.Saturation, defaultSaturation)
	p.Gamma = settle(p.Gamma, 1)
	p.Vignette = settle(p.Vignette, defaultVignette)
	p.Distortion = settle(p.Distortion, defaultDistortion)
	p.GlyphSharpness = settle(p.GlyphSharpness, 1)
	p.NoiseStrength *= decay
}

// follow is a frame-rate independent one-pole step toward target.
func follow(cur, target, rate, dt float64) float64 {
	return cur + (target-cur)*(1-math.Exp(-rate*dt))
}

// followAngle steps along the shorter arc and wraps into [0, 2π).
func followAngle(cur, target, rate, dt float64) float64 {
	diff := math.Remainder(target-cur, 2*math.Pi)
	next := math.Mod(cur+diff*(1-math.Exp(-rate*dt)), 2*math.Pi)
	if next < 0 {
		next += 2 * math.Pi
	}
	return next
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
