package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, rate, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestOpenWAVDownmixesStereo(t *testing.T) {
	// four stereo frames: left full scale, right silent
	path := writeWAV(t, 8000, 2, []int{16384, 0, 16384, 0, -16384, 0, -16384, 0})
	src, err := OpenWAV(path, 4)
	if err != nil {
		t.Fatalf("OpenWAV: %v", err)
	}
	if src.SampleRate() != 8000 {
		t.Fatalf("rate=%f want 8000", src.SampleRate())
	}
	if len(src.samples) != 4 {
		t.Fatalf("frames=%d want 4", len(src.samples))
	}
	if src.samples[0] != 0.25 || src.samples[2] != -0.25 {
		t.Fatalf("samples=%v want ±0.25", src.samples)
	}
}

func TestOpenWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.wav")
	if err := os.WriteFile(path, []byte("definitely not riff data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := OpenWAV(path, 16); !errors.Is(err, ErrInvalidWAV) {
		t.Fatalf("err=%v want ErrInvalidWAV", err)
	}
}

func TestWAVSourceAdvancesAndLoops(t *testing.T) {
	src := newWAVSource([]float32{0, 1, 2, 3, 4, 5, 6, 7}, 8, 4)
	src.Advance(0.5) // four samples
	got := src.Samples(nil)
	want := []float32{0, 1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("window=%v want %v", got, want)
		}
	}

	src.Advance(0.75) // wraps to sample 2
	got = src.Samples(got)
	want = []float32{6, 7, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("window=%v want %v", got, want)
		}
	}
	if src.Duration() != 1 {
		t.Fatalf("duration=%f want 1", src.Duration())
	}
}
