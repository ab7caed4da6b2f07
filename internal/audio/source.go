// Package audio provides the PCM sources feeding the analyzer and the
// spectrum front end that turns PCM windows into analyzer frames.
package audio

import "errors"

var (
	// ErrNoDevice is returned when no usable input device can be found.
	ErrNoDevice = errors.New("no suitable audio input device")
	// ErrInvalidWAV is returned when a file is not a decodable PCM WAV.
	ErrInvalidWAV = errors.New("invalid wav file")
)

// Source supplies the most recent mono samples in [-1, 1].
type Source interface {
	// Samples copies the latest window into dst and returns it. dst is grown
	// when it is shorter than the window.
	Samples(dst []float32) []float32
	SampleRate() float64
	Close() error
}

// Clocked is implemented by sources that do not run in real time and must be
// advanced by the frame loop.
type Clocked interface {
	Advance(dt float64)
}

// window is a fixed-size mono ring that downmixes interleaved input.
type window struct {
	buf   []float32
	index int
}

func newWindow(size int) *window {
	return &window{buf: make([]float32, size)}
}

// writeInterleaved averages each frame of channels samples into one value.
func (w *window) writeInterleaved(in []float32, channels int) {
	if channels <= 1 {
		w.write(in)
		return
	}
	inv := 1 / float32(channels)
	for base := 0; base+channels <= len(in); base += channels {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += in[base+ch]
		}
		w.buf[w.index] = sum * inv
		w.index++
		if w.index == len(w.buf) {
			w.index = 0
		}
	}
}

func (w *window) write(in []float32) {
	if len(in) >= len(w.buf) {
		copy(w.buf, in[len(in)-len(w.buf):])
		w.index = 0
		return
	}
	n := copy(w.buf[w.index:], in)
	if n < len(in) {
		copy(w.buf, in[n:])
	}
	w.index = (w.index + len(in)) % len(w.buf)
}

// snapshot copies the ring oldest-first into dst.
func (w *window) snapshot(dst []float32) []float32 {
	if cap(dst) < len(w.buf) {
		dst = make([]float32, len(w.buf))
	}
	dst = dst[:len(w.buf)]
	n := copy(dst, w.buf[w.index:])
	copy(dst[n:], w.buf[:w.index])
	return dst
}
