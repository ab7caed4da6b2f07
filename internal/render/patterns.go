package render

import (
	"math"
	"sort"

	"github.com/guidoenr/resonance/internal/analyzer"
	"github.com/guidoenr/resonance/internal/params"
)

// field is the per-frame input a pattern samples.
type field struct {
	p     *params.Parameters
	t     float64
	bands *[analyzer.NumBands]float64
}

type patternFunc func(x, y float64, f *field) float64

type patternEntry struct {
	fn        patternFunc
	detailMix float64
}

var patternRegistry = map[string]patternEntry{
	"plasma":   {fn: patternPlasma, detailMix: 0.25},
	"waves":    {fn: patternWaves, detailMix: 0.15},
	"ripples":  {fn: patternRipples, detailMix: 0.2},
	"nebula":   {fn: patternNebula, detailMix: 0.45},
	"spectrum": {fn: patternSpectrum, detailMix: 0.05},
}

// PatternNames returns the available pattern identifiers.
func PatternNames() []string {
	names := make([]string, 0, len(patternRegistry))
	for name := range patternRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func patternPlasma(x, y float64, f *field) float64 {
	t := f.t
	v1 := math.Sin((x*3.4 + t*1.2) * 0.9)
	v2 := math.Sin((y*4.1 - t*0.7) * 1.1)
	v3 := math.Sin((x+y)*2.3 + t*1.7)
	return (v1 + v2 + v3) / 3
}

func patternWaves(x, y float64, f *field) float64 {
	freq := f.p.Frequency * 0.6
	return math.Sin((x+f.t*0.8)*freq) * math.Cos((y-f.t*0.5)*freq*1.1)
}

func patternRipples(x, y float64, f *field) float64 {
	r := math.Hypot(x, y)
	theta := math.Atan2(y, x)
	return math.Sin(r*f.p.Frequency*1.6 - f.t*2.2 + math.Sin(theta*3+f.t)*0.5)
}

func patternNebula(x, y float64, f *field) float64 {
	base := patternPlasma(x*0.8, y*0.8, f)
	swirl := math.Sin((x-y)*1.5 + f.t*0.9)
	noise := fractalNoise(x*1.2+f.t*0.1, y*1.2-f.t*0.15)
	return clampFloat(base*0.6+swirl*0.2+noise*0.6, -1, 1)
}

// patternSpectrum draws the band values as vertical bars rising from the
// bottom edge; x and y are in [-0.5, 0.5].
func patternSpectrum(x, y float64, f *field) float64 {
	if f.bands == nil {
		return -1
	}
	idx := clampInt(int((x+0.5)*analyzer.NumBands), 0, analyzer.NumBands-1)
	level := clampFloat(f.bands[idx]/1.5, 0, 1)
	height := 0.5 - y
	if level > 0 && height <= level {
		return 1 - 0.8*height/level
	}
	return -1
}

func fractalNoise(x, y float64) float64 {
	amp, freq := 0.5, 1.0
	total, sumAmp := 0.0, 0.0
	for i := 0; i < 4; i++ {
		total += valueNoise(x*freq, y*freq) * amp
		sumAmp += amp
		amp *= 0.5
		freq *= 2
	}
	return (total/sumAmp)*2 - 1
}

func valueNoise(x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	sx, sy := smoothstep(x-x0), smoothstep(y-y0)
	ix0 := lerp(hash2(x0, y0), hash2(x0+1, y0), sx)
	ix1 := lerp(hash2(x0, y0+1), hash2(x0+1, y0+1), sx)
	return lerp(ix0, ix1, sy)
}

func hash2(x, y float64) float64 {
	v := math.Sin(x*127.1+y*311.7) * 43758.5453123
	return v - math.Floor(v)
}

func smoothstep(v float64) float64 {
	return v * v * (3 - 2*v)
}
