// Package app runs the capture, analysis, motion and render frame loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/guidoenr/resonance/internal/analyzer"
	"github.com/guidoenr/resonance/internal/audio"
	"github.com/guidoenr/resonance/internal/motion"
	"github.com/guidoenr/resonance/internal/params"
	"github.com/guidoenr/resonance/internal/render"
	"golang.org/x/term"
)

// maxFrameDelta caps dt after stalls so smoothing does not jump.
const maxFrameDelta = 0.05

// Config configures the application runtime.
type Config struct {
	DeviceName    string
	WAVPath       string
	DisableAudio  bool
	SynthBPM      float64
	Width         int
	Height        int
	TargetFPS     float64
	FFTSize       int
	Controls      Controls
	Visuals       Visuals
	ShowStatusBar bool
	UseANSI       bool
	Window        bool
	ProfilePath   string
	Keyboard      bool
	Output        io.Writer
	Log           *log.Logger
}

// App ties together audio capture, analysis, motion and rendering.
type App struct {
	cfg Config
	log *log.Logger
	out io.Writer

	source      audio.Source
	sourceLabel string
	spectrum    *audio.Spectrum
	samples     []float32
	analyzer    *analyzer.Analyzer
	motion      *motion.Coordinator
	params      params.Parameters
	renderer    *render.Renderer
	prof        *profiler

	last         time.Time
	width        int
	height       int
	renderHeight int
	inputEvents  chan inputEvent
	rng          *rand.Rand
	screen       strings.Builder

	mu       sync.Mutex
	controls Controls
	visuals  Visuals
	dirty    bool
	status   Status
}

// New constructs the application and opens its audio source.
func New(cfg Config) (*App, error) {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = 60
	}
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = 2048
	}
	if cfg.Width <= 0 {
		cfg.Width = 80
	}
	if cfg.Height <= 0 {
		cfg.Height = 24
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stderr, "", 0)
	}
	renderHeight := cfg.Height
	if cfg.ShowStatusBar && !cfg.Window && renderHeight > 1 {
		renderHeight--
	}

	renderer, err := render.New(render.Options{
		Width:        cfg.Width,
		Height:       renderHeight,
		Palette:      cfg.Visuals.Palette,
		Pattern:      cfg.Visuals.Pattern,
		ColorMode:    cfg.Visuals.ColorMode,
		ColorOnAudio: cfg.Visuals.ColorOnAudio,
		UseANSI:      cfg.UseANSI,
		Window:       cfg.Window,
	})
	if err != nil {
		return nil, err
	}

	source, label, err := openSource(cfg)
	if err != nil {
		_ = renderer.Close()
		return nil, err
	}
	cfg.Log.Printf("audio source %s @ %.0f Hz", label, source.SampleRate())

	controls := cfg.Controls.clamped()
	a := &App{
		cfg:         cfg,
		log:         cfg.Log,
		out:         cfg.Output,
		source:      source,
		sourceLabel: label,
		spectrum:    audio.NewSpectrum(cfg.FFTSize),
		analyzer: analyzer.New(analyzer.Config{
			SampleRate:  source.SampleRate(),
			FFTSize:     cfg.FFTSize,
			Sensitivity: controls.Sensitivity,
		}),
		motion:       motion.New(controls.Smoothness),
		params:       params.Defaults(),
		renderer:     renderer,
		prof:         newProfiler(cfg.ProfilePath, cfg.Log),
		width:        cfg.Width,
		height:       cfg.Height,
		renderHeight: renderHeight,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		controls:     controls,
		visuals: Visuals{
			Palette:      renderer.PaletteName(),
			Pattern:      renderer.PatternName(),
			ColorMode:    renderer.ColorModeName(),
			ColorOnAudio: renderer.ColorOnAudio(),
		},
	}
	a.params.Pattern = renderer.PatternName()
	a.params.ColorMode = renderer.ColorModeName()
	a.status = Status{Source: label, Controls: a.controls, Visuals: a.visuals, Features: *a.analyzer.Snapshot()}
	return a, nil
}

func openSource(cfg Config) (audio.Source, string, error) {
	switch {
	case cfg.WAVPath != "":
		src, err := audio.OpenWAV(cfg.WAVPath, cfg.FFTSize)
		if err != nil {
			return nil, "", fmt.Errorf("wav source: %w", err)
		}
		return src, "wav:" + cfg.WAVPath, nil
	case cfg.DisableAudio:
		return newSynth(cfg.SynthBPM, cfg.FFTSize, time.Now().UnixNano()), "synthetic", nil
	default:
		capture, err := audio.NewCapture(audio.CaptureConfig{
			DeviceName: cfg.DeviceName,
			WindowSize: cfg.FFTSize,
			Channels:   2,
		})
		if err != nil {
			return nil, "", fmt.Errorf("audio capture: %w", err)
		}
		return capture, "mic:" + capture.DeviceName(), nil
	}
}

// Run drives the frame loop until the context ends or the user quits.
func (a *App) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / a.cfg.TargetFPS))
	defer ticker.Stop()

	if !a.renderer.Windowed() {
		fmt.Fprint(a.out, "\x1b[?1049h\x1b[2J\x1b[H\x1b[?25l")
		defer fmt.Fprint(a.out, "\x1b[?25h\x1b[?1049l\x1b[0m")
	}

	if a.cfg.Keyboard {
		inputCtx, cancelInput := context.WithCancel(ctx)
		defer cancelInput()
		a.startInputListener(inputCtx)
	}
	a.last = time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-a.inputEvents:
			if !ok {
				a.inputEvents = nil
				continue
			}
			if a.handleInput(evt) {
				return nil
			}
		case now := <-ticker.C:
			dt := frameDelta(now.Sub(a.last).Seconds(), a.cfg.TargetFPS)
			a.last = now
			if err := a.step(dt); err != nil {
				if errors.Is(err, render.ErrRendererQuit) {
					return nil
				}
				return err
			}
		}
	}
}

// frameDelta substitutes the nominal frame time for non-positive deltas and
// caps long stalls.
func frameDelta(dt, fps float64) float64 {
	if dt <= 0 {
		return 1 / fps
	}
	return min(dt, maxFrameDelta)
}

// Close releases the audio source, window and profiler.
func (a *App) Close() error {
	return errors.Join(a.source.Close(), a.renderer.Close(), a.prof.Close())
}

func (a *App) step(dt float64) error {
	a.prof.beginFrame()
	a.ensureDimensions()
	frame := a.advance(dt)
	err := a.present(frame)
	a.prof.mark(sectionPresent)
	a.prof.endFrame()
	return err
}

// advance runs one frame of the pipeline and returns the rendered frame.
func (a *App) advance(dt float64) render.Frame {
	a.applyPending()
	alpha := a.Controls().Alpha

	if c, ok := a.source.(audio.Clocked); ok {
		c.Advance(dt)
	}
	a.samples = a.source.Samples(a.samples)
	freq, wave := a.spectrum.Process(a.samples)
	a.prof.mark(sectionCapture)

	a.analyzer.Analyze(freq, wave, dt, alpha)
	feat := a.analyzer.Snapshot()
	a.prof.mark(sectionAnalyze)

	a.motion.Update(feat, dt)
	m := a.motion.Snapshot()
	a.params.ApplyMotion(m, feat, dt)
	a.params.UpdateTime(dt)
	a.prof.mark(sectionMotion)

	fps := 1 / dt
	frame := a.renderer.Render(a.params, feat, m, fps)
	a.prof.mark(sectionRender)
	a.publish(feat, m, fps)
	return frame
}

func (a *App) present(frame render.Frame) error {
	status := frame.Status + " | " + a.sourceLabel
	if frame.Present != nil {
		return frame.Present(status)
	}
	b := &a.screen
	b.Reset()
	b.WriteString("\x1b[H")
	for _, line := range frame.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if a.cfg.ShowStatusBar {
		b.WriteString(statusBar(status, a.width))
	}
	_, err := io.WriteString(a.out, b.String())
	return err
}

func (a *App) ensureDimensions() {
	if a.renderer.Windowed() {
		return
	}
	f, ok := a.out.(*os.File)
	if !ok {
		return
	}
	w, h, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 || h <= 0 || (w == a.width && h == a.height) {
		return
	}
	renderHeight := h
	if a.cfg.ShowStatusBar && renderHeight > 1 {
		renderHeight--
	}
	a.width, a.height, a.renderHeight = w, h, renderHeight
	a.renderer.Resize(w, renderHeight)
}

// randomizeVisuals picks a new palette, pattern and color mode.
func (a *App) randomizeVisuals() Visuals {
	cur := a.Visuals()
	next := Visuals{
		Palette:      pickRandom(render.PaletteNames(), cur.Palette, a.rng),
		Pattern:      pickRandom(render.PatternNames(), cur.Pattern, a.rng),
		ColorMode:    pickRandom(render.ColorModeNames(), cur.ColorMode, a.rng),
		ColorOnAudio: cur.ColorOnAudio,
	}
	a.SetVisuals(next)
	a.log.Printf("randomize visuals -> palette=%s pattern=%s color=%s", next.Palette, next.Pattern, next.ColorMode)
	return next
}

// statusBar pads or truncates text to width runes.
func statusBar(text string, width int) string {
	if width <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) >= width {
		return string(runes[:width])
	}
	return text + strings.Repeat(" ", width-len(runes))
}

func pickRandom(options []string, current string, rng *rand.Rand) string {
	if len(options) == 0 {
		return current
	}
	if len(options) == 1 {
		return options[0]
	}
	for {
		choice := options[rng.Intn(len(options))]
		if !strings.EqualFold(choice, current) {
			return choice
		}
	}
}
