package audio

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// CaptureConfig controls how a Capture stream is opened.
type CaptureConfig struct {
	DeviceName string
	WindowSize int
	Channels   int
}

const defaultWindowSize = 4096

// Capture reads a PortAudio input stream into a mono sample window.
type Capture struct {
	stream     *portaudio.Stream
	device     *portaudio.DeviceInfo
	sampleRate float64
	channels   int

	mu  sync.Mutex
	win *window
}

// NewCapture opens and starts an input stream. Initialize must have been
// called first.
func NewCapture(cfg CaptureConfig) (*Capture, error) {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = defaultWindowSize
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}

	device, err := findDevice(cfg.DeviceName)
	if err != nil {
		return nil, err
	}
	if cfg.Channels > device.MaxInputChannels {
		cfg.Channels = device.MaxInputChannels
	}

	c := &Capture{
		device:     device,
		sampleRate: device.DefaultSampleRate,
		channels:   cfg.Channels,
		win:        newWindow(cfg.WindowSize),
	}

	framesPerBuffer := cfg.WindowSize / 4
	if framesPerBuffer < 64 {
		framesPerBuffer = portaudio.FramesPerBufferUnspecified
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: cfg.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      c.sampleRate,
		FramesPerBuffer: framesPerBuffer,
	}, c.process)
	if err != nil {
		return nil, fmt.Errorf("open stream on %q: %w", device.Name, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("start stream on %q: %w", device.Name, err)
	}
	c.stream = stream
	return c, nil
}

// Close stops and closes the stream.
func (c *Capture) Close() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil && !isInvalidStreamState(err) {
		return err
	}
	return c.stream.Close()
}

// SampleRate returns the stream sample rate.
func (c *Capture) SampleRate() float64 {
	return c.sampleRate
}

// DeviceName returns the name of the device being captured.
func (c *Capture) DeviceName() string {
	return c.device.Name
}

// Samples copies the latest mono window into dst.
func (c *Capture) Samples(dst []float32) []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.win.snapshot(dst)
}

func (c *Capture) process(in []float32) {
	c.mu.Lock()
	c.win.writeInterleaved(in, c.channels)
	c.mu.Unlock()
}

func findDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}
	if name != "" {
		needle := strings.ToLower(name)
		for _, d := range devices {
			if d != nil && d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), needle) {
				return d, nil
			}
		}
		return nil, fmt.Errorf("audio device %q: %w", name, ErrNoDevice)
	}

	defaults := defaultInputIndexes()
	best := pickDevice(devices, func(d *portaudio.DeviceInfo) deviceInfo {
		if d == nil {
			return deviceInfo{}
		}
		return deviceInfo{
			name:      d.Name,
			inputs:    d.MaxInputChannels,
			isDefault: defaults[d.Index],
		}
	})
	if best == nil {
		return nil, ErrNoDevice
	}
	return best, nil
}

func defaultInputIndexes() map[int]bool {
	out := map[int]bool{}
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		out[def.Index] = true
	}
	if host, err := portaudio.DefaultHostApi(); err == nil && host != nil && host.DefaultInputDevice != nil {
		out[host.DefaultInputDevice.Index] = true
	}
	return out
}

// deviceInfo is the part of a device the scorer looks at.
type deviceInfo struct {
	name      string
	inputs    int
	isDefault bool
}

// loopbackHints mark devices that capture system output rather than a mic.
var loopbackHints = []string{"monitor", "loopback", "stereo mix", "what u hear", "blackhole"}

func scoreDevice(d deviceInfo) int {
	if d.inputs <= 0 {
		return -1
	}
	score := d.inputs
	if d.isDefault {
		score += 50
	}
	lower := strings.ToLower(d.name)
	for _, hint := range loopbackHints {
		if strings.Contains(lower, hint) {
			score += 20
			break
		}
	}
	if strings.Contains(lower, "default") {
		score += 10
	}
	return score
}

// pickDevice returns the highest-scoring input device, ties broken by name.
func pickDevice[T any](devices []T, info func(T) deviceInfo) T {
	type scored struct {
		dev   T
		name  string
		score int
	}
	var results []scored
	for _, d := range devices {
		di := info(d)
		if s := scoreDevice(di); s >= 0 {
			results = append(results, scored{dev: d, name: strings.ToLower(di.name), score: s})
		}
	}
	var zero T
	if len(results) == 0 {
		return zero
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].score == results[j].score {
			return results[i].name < results[j].name
		}
		return results[i].score > results[j].score
	})
	return results[0].dev
}

// isInvalidStreamState reports an error from stopping a stopped stream.
func isInvalidStreamState(err error) bool {
	return err != nil && strings.Contains(err.Error(), "PaErrorCode -9986")
}

// AutoDetectDevice returns the name of the input device NewCapture would
// choose without an explicit name.
func AutoDetectDevice() (string, error) {
	d, err := findDevice("")
	if err != nil {
		return "", err
	}
	return d.Name, nil
}
