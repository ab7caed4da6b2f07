package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/guidoenr/resonance/internal/app"
	"github.com/guidoenr/resonance/internal/audio"
	"github.com/guidoenr/resonance/internal/web"
	"golang.org/x/term"
)

func main() {
	var (
		deviceName  = flag.String("audio-device", "", "PortAudio input device (substring match)")
		listDevs    = flag.Bool("list-audio-devices", false, "List audio devices and exit")
		wavPath     = flag.String("wav", "", "Analyze a WAV file instead of live input")
		noAudio     = flag.Bool("no-audio", false, "Use the built-in synthetic drum loop")
		synthBPM    = flag.Float64("synth-bpm", 120, "Tempo of the synthetic loop")
		width       = flag.Int("width", 80, "Frame width in cells (or pixels with -window)")
		height      = flag.Int("height", 24, "Frame height in cells (or pixels with -window)")
		targetFPS   = flag.Float64("fps", 60, "Target frames per second")
		fftSize     = flag.Int("fft-size", 2048, "FFT size, a power of two")
		smoothness  = flag.Float64("smoothness", 0.5, "Motion smoothness, 0 reactive to 1 ultra smooth")
		alpha       = flag.Float64("alpha", 0.2, "Spectrum smoothing factor (0.05-0.4)")
		sensitivity = flag.Float64("sensitivity", 1.0, "Onset strength multiplier")
		palette     = flag.String("palette", "default", "Glyph palette (default|box|lines|spark|blocks)")
		pattern     = flag.String("pattern", "plasma", "Visual pattern (nebula|plasma|ripples|spectrum|waves)")
		colorMode   = flag.String("color-mode", "chromatic", "Color mode (aurora|chromatic|fire|key|mono)")
		colorBurst  = flag.Bool("color-on-audio", false, "Fade from monochrome to color with audio energy")
		showStatus  = flag.Bool("status", true, "Display status bar")
		noColor     = flag.Bool("no-color", false, "Disable ANSI color output")
		window      = flag.Bool("window", false, "Render into an SDL window (requires -tags sdl)")
		webPort     = flag.Int("web-port", 0, "Serve the control API on this port (0 disables)")
		profilePath = flag.String("profile", "", "Write per-frame section timings as CSV")
		debug       = flag.Bool("debug", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[resonance] ", 0)
	if *debug {
		logger.SetFlags(log.LstdFlags | log.Lmicroseconds)
	}

	if *width <= 0 || *height <= 0 {
		logger.Fatalf("invalid dimensions: width=%d height=%d", *width, *height)
	}
	if *targetFPS <= 0 {
		logger.Fatalf("fps must be positive (got %.2f)", *targetFPS)
	}
	if *fftSize < 32 || *fftSize&(*fftSize-1) != 0 {
		logger.Fatalf("fft-size must be a power of two >= 32 (got %d)", *fftSize)
	}

	if !*window {
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && h > 0 {
			*width, *height = w, h
		}
	}

	liveAudio := !*noAudio && *wavPath == ""
	if liveAudio || *listDevs {
		if err := audio.Initialize(); err != nil {
			logger.Fatalf("audio init: %v", err)
		}
		defer audio.Terminate()
	}

	if *listDevs {
		if err := listDevices(); err != nil {
			logger.Fatalf("list devices: %v", err)
		}
		return
	}

	a, err := app.New(app.Config{
		DeviceName:   *deviceName,
		WAVPath:      *wavPath,
		DisableAudio: *noAudio,
		SynthBPM:     *synthBPM,
		Width:        *width,
		Height:       *height,
		TargetFPS:    *targetFPS,
		FFTSize:      *fftSize,
		Controls: app.Controls{
			Smoothness:  *smoothness,
			Alpha:       *alpha,
			Sensitivity: *sensitivity,
		},
		Visuals: app.Visuals{
			Palette:      *palette,
			Pattern:      *pattern,
			ColorMode:    *colorMode,
			ColorOnAudio: *colorBurst,
		},
		ShowStatusBar: *showStatus,
		UseANSI:       !*noColor,
		Window:        *window,
		ProfilePath:   *profilePath,
		Keyboard:      !*window,
		Log:           logger,
	})
	if err != nil {
		if errors.Is(err, audio.ErrNoDevice) {
			logger.Printf("hint: run with -list-audio-devices, or -no-audio for the synthetic loop")
		}
		logger.Fatalf("startup: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Printf("cleanup: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *webPort > 0 {
		srv := web.NewServer(a, log.New(os.Stderr, "[web] ", logger.Flags()))
		go func() {
			if err := srv.Run(ctx, fmt.Sprintf(":%d", *webPort)); err != nil {
				logger.Printf("web server: %v", err)
			}
		}()
	}

	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Printf("runtime error: %v", err)
		return
	}
}

func listDevices() error {
	devices, err := audio.ListDevices()
	if err != nil {
		return err
	}
	fmt.Println("Audio input devices (* = default):")
	for _, d := range devices {
		if d.MaxInput > 0 {
			fmt.Println(d)
		}
	}
	if name, err := audio.AutoDetectDevice(); err == nil {
		fmt.Printf("\nAuto-detected input: %s\n", name)
	}
	return nil
}
