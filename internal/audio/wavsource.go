package audio

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSource plays a decoded WAV file back as a looping, frame-clocked source.
type WAVSource struct {
	samples    []float32
	sampleRate float64
	size       int
	pos        float64
}

// OpenWAV decodes the whole file at path and returns a source whose window
// holds size samples.
func OpenWAV(path string, size int) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 || len(buf.Data) == 0 {
		return nil, fmt.Errorf("%s: empty stream: %w", path, ErrInvalidWAV)
	}
	return newWAVSource(downmix(buf), float64(buf.Format.SampleRate), size), nil
}

func newWAVSource(samples []float32, rate float64, size int) *WAVSource {
	if size <= 0 {
		size = defaultWindowSize
	}
	return &WAVSource{samples: samples, sampleRate: rate, size: size}
}

// downmix converts interleaved integer PCM into mono floats in [-1, 1].
func downmix(buf *audio.IntBuffer) []float32 {
	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = 16
	}
	scale := 1 / (float32(int64(1)<<(depth-1)) * float32(channels))

	out := make([]float32, len(buf.Data)/channels)
	for i := range out {
		var sum int
		for ch := 0; ch < channels; ch++ {
			sum += buf.Data[i*channels+ch]
		}
		out[i] = float32(sum) * scale
	}
	return out
}

// Advance moves the playhead forward by dt seconds, looping at the end.
func (w *WAVSource) Advance(dt float64) {
	if dt <= 0 || len(w.samples) == 0 {
		return
	}
	w.pos = math.Mod(w.pos+dt*w.sampleRate, float64(len(w.samples)))
}

// Samples copies the window ending at the playhead into dst.
func (w *WAVSource) Samples(dst []float32) []float32 {
	if cap(dst) < w.size {
		dst = make([]float32, w.size)
	}
	dst = dst[:w.size]
	n := len(w.samples)
	if n == 0 {
		clear(dst)
		return dst
	}
	end := int(w.pos)
	for i := range dst {
		j := (end - w.size + i) % n
		if j < 0 {
			j += n
		}
		dst[i] = w.samples[j]
	}
	return dst
}

// SampleRate returns the file sample rate.
func (w *WAVSource) SampleRate() float64 {
	return w.sampleRate
}

// Duration returns the file length in seconds.
func (w *WAVSource) Duration() float64 {
	return float64(len(w.samples)) / w.sampleRate
}

// Close releases nothing; the file is fully decoded on open.
func (w *WAVSource) Close() error {
	return nil
}
