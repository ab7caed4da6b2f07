package audio

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	defaultMinDecibels = -100.0
	defaultMaxDecibels = -30.0
)

// Spectrum converts a PCM window into byte-range frequency magnitudes and
// waveform samples, the frame format the analyzer consumes.
type Spectrum struct {
	size   int
	window []float64
	buf    []float64
	freq   []uint8
	wave   []uint8

	minDB float64
	maxDB float64
}

// NewSpectrum prepares buffers for an FFT of the given size.
func NewSpectrum(size int) *Spectrum {
	if size < 32 {
		size = 32
	}
	return &Spectrum{
		size:   size,
		window: window.Blackman(size),
		buf:    make([]float64, size),
		freq:   make([]uint8, size/2),
		wave:   make([]uint8, size),
		minDB:  defaultMinDecibels,
		maxDB:  defaultMaxDecibels,
	}
}

// Size returns the FFT size.
func (s *Spectrum) Size() int { return s.size }

// Process analyses the most recent Size() samples. The returned slices are
// reused by the next call.
func (s *Spectrum) Process(samples []float32) (freq, wave []uint8) {
	offset := len(samples) - s.size
	for i := 0; i < s.size; i++ {
		v := 0.0
		if j := offset + i; j >= 0 {
			v = float64(samples[j])
		}
		s.wave[i] = toByte(128 + v*128)
		s.buf[i] = v * s.window[i]
	}

	coeffs := fft.FFTReal(s.buf)
	n := float64(s.size)
	span := s.maxDB - s.minDB
	for i := range s.freq {
		c := coeffs[i]
		mag := math.Sqrt(real(c)*real(c)+imag(c)*imag(c)) / n
		db := s.minDB
		if mag > 0 {
			db = 20 * math.Log10(mag)
		}
		s.freq[i] = toByte(255 * (db - s.minDB) / span)
	}
	return s.freq, s.wave
}

func toByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
