// Package render draws frames from visual parameters, either as ANSI text
// for a terminal or into an SDL window.
package render

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"

	"github.com/guidoenr/resonance/internal/analyzer"
	"github.com/guidoenr/resonance/internal/motion"
	"github.com/guidoenr/resonance/internal/params"
)

// ErrRendererQuit is returned by Frame.Present when the user closes the window.
var ErrRendererQuit = errors.New("renderer closed")

type backend int

const (
	backendText backend = iota
	backendSDL
)

// Options configures a Renderer.
type Options struct {
	Width        int
	Height       int
	Palette      string
	Pattern      string
	ColorMode    string
	ColorOnAudio bool
	UseANSI      bool
	Window       bool
}

// Renderer converts parameter state into frames.
type Renderer struct {
	width        int
	height       int
	palette      []rune
	paletteName  string
	pattern      patternEntry
	patternName  string
	colorMode    colorMode
	colorOnAudio bool
	useANSI      bool

	mode backend
	sdl  *sdlState

	xCoords []float64
	yCoords []float64
	status  strings.Builder
}

// Frame is one rendered image. Text frames carry Lines; window frames carry
// a Present func that draws the frame and pumps window events.
type Frame struct {
	Lines   []string
	Status  string
	Present func(status string) error
}

// New creates a Renderer.
func New(opts Options) (*Renderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: width=%d height=%d", opts.Width, opts.Height)
	}
	r := &Renderer{
		width:   opts.Width,
		height:  opts.Height,
		useANSI: opts.UseANSI,
	}
	r.Configure(opts.Palette, opts.Pattern, opts.ColorMode, opts.ColorOnAudio)
	if opts.Window {
		if err := r.initSDL(); err != nil {
			return nil, fmt.Errorf("window backend: %w", err)
		}
	}
	return r, nil
}

// Configure updates palette, pattern and color behaviour. Unknown names fall
// back to defaults.
func (r *Renderer) Configure(paletteName, patternName, colorModeName string, colorOnAudio bool) {
	if _, ok := palettes[paletteName]; !ok {
		paletteName = "default"
	}
	r.palette = Palette(paletteName)
	r.paletteName = paletteName

	key := strings.ToLower(patternName)
	entry, ok := patternRegistry[key]
	if !ok {
		key = "plasma"
		entry = patternRegistry[key]
	}
	r.pattern = entry
	r.patternName = key

	r.colorMode = parseColorMode(colorModeName)
	r.colorOnAudio = colorOnAudio
}

// Resize updates the frame dimensions; non-positive values are ignored.
func (r *Renderer) Resize(width, height int) {
	changed := false
	if width > 0 && width != r.width {
		r.width = width
		changed = true
	}
	if height > 0 && height != r.height {
		r.height = height
		changed = true
	}
	if changed {
		r.xCoords, r.yCoords = nil, nil
		r.resizeSDL()
	}
}

func (r *Renderer) PaletteName() string   { return r.paletteName }
func (r *Renderer) PatternName() string   { return r.patternName }
func (r *Renderer) ColorModeName() string { return string(r.colorMode) }
func (r *Renderer) ColorOnAudio() bool    { return r.colorOnAudio }

// Windowed reports whether frames are presented in a window.
func (r *Renderer) Windowed() bool { return r.mode == backendSDL }

// Close releases window resources.
func (r *Renderer) Close() error {
	return r.closeSDL()
}

// Render draws one frame.
func (r *Renderer) Render(p params.Parameters, f *analyzer.FeatureSnapshot, m motion.Snapshot, fps float64) Frame {
	if r.width <= 0 || r.height <= 0 {
		return Frame{}
	}
	if f == nil {
		f = &analyzer.FeatureSnapshot{RootNote: -1}
	}
	fr := r.buildFrame(&p, f, m)
	r.ensureCoordinateCache()
	status := r.buildStatus(f, m, fps)

	if r.mode == backendSDL {
		return r.renderSDL(&fr, status)
	}

	lines := make([]string, r.height)
	r.forEachRow(func(y int) {
		var b strings.Builder
		b.Grow(r.width * 8)
		last := -1
		for x := 0; x < r.width; x++ {
			value, bright := r.shade(r.xCoords[x], r.yCoords[y], &fr)
			idx := clampInt(int(math.Pow(bright, fr.sharpness)*float64(len(r.palette)-1)+0.5), 0, len(r.palette)-1)
			if r.useANSI {
				h, s, v := r.color(value, bright, &fr)
				if c := rgbToANSI(hsvToRGB(h, s, v)); c != last {
					b.WriteString(colorCode(c))
					last = c
				}
			}
			b.WriteRune(r.palette[idx])
		}
		if r.useANSI {
			b.WriteString(resetANSI)
		}
		lines[y] = b.String()
	})
	return Frame{Lines: lines, Status: status}
}

// forEachRow runs fn for every row on a pool of GOMAXPROCS workers.
func (r *Renderer) forEachRow(fn func(y int)) {
	workers := min(runtime.GOMAXPROCS(0), r.height)
	if workers < 1 {
		workers = 1
	}
	rows := make(chan int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rows {
				fn(y)
			}
		}()
	}
	for y := 0; y < r.height; y++ {
		rows <- y
	}
	close(rows)
	wg.Wait()
}

// frame holds the per-frame constants shared by every pixel.
type frame struct {
	field
	scale      float64
	sinRot     float64
	cosRot     float64
	swirl      float64
	warp       float64
	noiseScale float64
	detail     float64
	amplitude  float64
	invGamma   float64
	invContr   float64
	brightness float64
	vignette   float64
	sharpness  float64
	hueShift   float64
	hueKey     float64
	saturation float64
	activation float64
}

func (r *Renderer) buildFrame(p *params.Parameters, f *analyzer.FeatureSnapshot, m motion.Snapshot) frame {
	t := p.Time
	sinRot, cosRot := math.Sincos(t * 0.2)
	scale := p.Scale * p.Zoom
	if scale <= 0 {
		scale = 1
	}
	shift := math.Mod(p.ColorShift/(2*math.Pi), 1)
	if shift < 0 {
		shift++
	}
	activation := 1.0
	if r.colorOnAudio {
		activation = clamp01(f.Energy*1.2 + m.Pulse*0.6)
	}
	return frame{
		field:      field{p: p, t: t, bands: &f.BandValues},
		scale:      scale,
		sinRot:     sinRot,
		cosRot:     cosRot,
		swirl:      p.Distortion * (0.5 + m.Impact*0.5),
		warp:       p.NoiseStrength * 0.35,
		noiseScale: 0.25,
		detail:     clamp01(r.pattern.detailMix * (0.3 + p.NoiseStrength)),
		amplitude:  clampFloat(p.Amplitude, 0, 3),
		invGamma:   1 / math.Max(0.1, p.Gamma),
		invContr:   1 / math.Max(0.2, p.Contrast),
		brightness: clampFloat(p.Brightness, 0, 3),
		vignette:   clamp01(p.Vignette),
		sharpness:  math.Max(0.2, p.GlyphSharpness),
		hueShift:   shift,
		hueKey:     p.Hue / (2 * math.Pi),
		saturation: p.Saturation,
		activation: activation,
	}
}

// shade returns the raw pattern value in [-1, 1] and the final brightness in
// [0, 1] for normalised screen coordinates.
func (r *Renderer) shade(vx, vy float64, fr *frame) (float64, float64) {
	rx, ry := vx, vy
	if r.patternName != "spectrum" {
		x, y := vx/fr.scale, vy/fr.scale
		rx = x*fr.cosRot - y*fr.sinRot
		ry = x*fr.sinRot + y*fr.cosRot
		radius := math.Hypot(rx, ry)
		angle := math.Atan2(ry, rx)
		if fr.swirl != 0 {
			angle += fr.swirl * math.Exp(-radius*1.6) * math.Sin(fr.t*1.5+radius*2.3)
			radius += fr.swirl * 0.12 * math.Sin(fr.t*1.15+angle*1.4)
		}
		rx, ry = radius*math.Cos(angle), radius*math.Sin(angle)
		if fr.warp > 0 {
			w := fractalNoise((vx+fr.t*0.15)/fr.noiseScale, (vy-fr.t*0.12)/fr.noiseScale) * fr.warp
			rx += w
			ry += w
		}
	}

	value := r.pattern.fn(rx, ry, &fr.field)
	if fr.detail > 0 {
		d := fractalNoise(rx*2+fr.t*0.4, ry*2-fr.t*0.3)
		value = value*(1-fr.detail) + d*fr.detail
	}
	value = clampFloat(value, -1, 1)

	bright := clamp01((value*fr.amplitude + 1) * 0.5)
	bright = math.Pow(math.Pow(bright, fr.invGamma), fr.invContr)
	bright = clamp01(bright * fr.brightness)
	if r.colorOnAudio {
		bright = lerp(0.04, bright, fr.activation)
	}
	if fr.vignette > 0 {
		dist := math.Min(1, math.Hypot(vx, vy)*2)
		bright *= clamp01(1 - fr.vignette*math.Pow(dist, 1.2))
	}
	return value, clamp01(bright)
}

// color returns hue, saturation and value for a shaded pixel.
func (r *Renderer) color(value, bright float64, fr *frame) (float64, float64, float64) {
	base := clamp01((value + 1) * 0.5)
	var h, s, v float64
	switch r.colorMode {
	case colorModeFire:
		h = 0.02 + base*0.08 + fr.hueShift*0.1
		s = clamp01(0.7 + bright*0.25)
		v = clamp01(0.35 + bright*0.8 + base*0.2)
	case colorModeAurora:
		h = 0.45 + base*0.25 + fr.hueShift*0.3
		s = clamp01(0.45 + fr.saturation*0.45)
		v = clamp01(0.28 + bright*0.85 + base*0.12)
	case colorModeMono:
		h, s, v = 0, 0, bright
	case colorModeKey:
		h = fr.hueKey + (base-0.5)*0.12
		s = clamp01(0.3 + fr.saturation*0.5)
		v = clamp01(bright*0.9 + base*0.15)
	default:
		h = fr.hueShift + base*0.35
		s = clamp01(0.35 + fr.saturation*0.5)
		v = clamp01(bright*0.9 + base*0.2)
	}
	if r.colorOnAudio {
		s *= fr.activation
		v = clamp01(0.05 + v*fr.activation)
		if fr.activation < 0.08 {
			s = 0
		}
	}
	return h, s, v
}

func (r *Renderer) ensureCoordinateCache() {
	if len(r.xCoords) != r.width {
		r.xCoords = axis(r.width)
	}
	if len(r.yCoords) != r.height {
		r.yCoords = axis(r.height)
	}
}

// axis maps n cells onto [-0.5, 0.5).
func axis(n int) []float64 {
	out := make([]float64, n)
	if n <= 1 {
		return out
	}
	for i := range out {
		out[i] = float64(i)/float64(n) - 0.5
	}
	return out
}
