package app

import (
	"math"

	"github.com/guidoenr/resonance/internal/analyzer"
	"github.com/guidoenr/resonance/internal/motion"
)

// Controls are the user-tunable analysis and motion knobs.
type Controls struct {
	Smoothness  float64 `json:"smoothness"`
	Alpha       float64 `json:"alpha"`
	Sensitivity float64 `json:"sensitivity"`
}

const (
	minAlpha       = 0.05
	maxAlpha       = 0.4
	minSensitivity = 0.1
	maxSensitivity = 4.0

	smoothnessStep = 0.1
	alphaStep      = 0.05
)

func (c Controls) clamped() Controls {
	return Controls{
		Smoothness:  clampControl(c.Smoothness, 0, 1, 0.5),
		Alpha:       clampControl(c.Alpha, minAlpha, maxAlpha, 0.2),
		Sensitivity: clampControl(c.Sensitivity, minSensitivity, maxSensitivity, 1),
	}
}

func clampControl(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return math.Max(lo, math.Min(hi, v))
}

// Visuals names the renderer configuration.
type Visuals struct {
	Palette      string `json:"palette"`
	Pattern      string `json:"pattern"`
	ColorMode    string `json:"colorMode"`
	ColorOnAudio bool   `json:"colorOnAudio"`
}

// Status is the telemetry published after every frame.
type Status struct {
	FPS      float64                  `json:"fps"`
	Source   string                   `json:"source"`
	Frames   uint64                   `json:"frames"`
	Features analyzer.FeatureSnapshot `json:"features"`
	Motion   motion.Snapshot          `json:"motion"`
	Controls Controls                 `json:"controls"`
	Visuals  Visuals                  `json:"visuals"`
}

// Status returns the telemetry of the latest frame. Safe for concurrent use.
func (a *App) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Controls returns the current control values. Safe for concurrent use.
func (a *App) Controls() Controls {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.controls
}

// SetControls clamps c and schedules it for the next frame. Safe for
// concurrent use.
func (a *App) SetControls(c Controls) Controls {
	c = c.clamped()
	a.mu.Lock()
	a.controls = c
	a.dirty = true
	a.mu.Unlock()
	return c
}

// Visuals returns the current renderer configuration. Safe for concurrent use.
func (a *App) Visuals() Visuals {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.visuals
}

// SetVisuals schedules a renderer reconfiguration for the next frame. Safe
// for concurrent use.
func (a *App) SetVisuals(v Visuals) {
	a.mu.Lock()
	a.visuals = v
	a.dirty = true
	a.mu.Unlock()
}

// adjustControls applies fn to a copy of the controls and stores the result.
func (a *App) adjustControls(fn func(*Controls)) Controls {
	c := a.Controls()
	fn(&c)
	return a.SetControls(c)
}

// applyPending pushes control and visual changes into the frame loop state.
// It runs on the frame loop goroutine only.
func (a *App) applyPending() {
	a.mu.Lock()
	if !a.dirty {
		a.mu.Unlock()
		return
	}
	c, v := a.controls, a.visuals
	a.dirty = false
	a.mu.Unlock()

	a.motion.SetSmoothness(c.Smoothness)
	a.analyzer.SetSensitivity(c.Sensitivity)
	a.renderer.Configure(v.Palette, v.Pattern, v.ColorMode, v.ColorOnAudio)
	a.params.Pattern = a.renderer.PatternName()
	a.params.ColorMode = a.renderer.ColorModeName()

	// store the names the renderer actually accepted
	a.mu.Lock()
	if !a.dirty {
		a.visuals = Visuals{
			Palette:      a.renderer.PaletteName(),
			Pattern:      a.renderer.PatternName(),
			ColorMode:    a.renderer.ColorModeName(),
			ColorOnAudio: a.renderer.ColorOnAudio(),
		}
	}
	a.mu.Unlock()
}

func (a *App) publish(f *analyzer.FeatureSnapshot, m motion.Snapshot, fps float64) {
	a.mu.Lock()
	a.status = Status{
		FPS:      fps,
		Source:   a.sourceLabel,
		Frames:   a.status.Frames + 1,
		Features: *f,
		Motion:   m,
		Controls: a.controls,
		Visuals:  a.visuals,
	}
	a.mu.Unlock()
}
