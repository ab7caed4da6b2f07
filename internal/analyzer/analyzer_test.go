package analyzer

import (
	"math"
	"math/rand"
	"testing"
)

const (
	testRate = 44_100
	testFFT  = 2048
)

func silentWave() []uint8 {
	wave := make([]uint8, testFFT)
	for i := range wave {
		wave[i] = 128
	}
	return wave
}

// kickSpectrum lights the bins below ~150 Hz on top of a quiet floor.
func kickSpectrum(on bool) []uint8 {
	freq := make([]uint8, testFFT/2)
	for i := range freq {
		freq[i] = 20
	}
	if on {
		for i := 2; i <= 6; i++ {
			freq[i] = 255
		}
	}
	return freq
}

func checkSnapshot(t *testing.T, frame int, s *FeatureSnapshot) {
	t.Helper()
	inRange := func(name string, v, lo, hi float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < lo || v > hi {
			t.Fatalf("frame %d: %s=%f outside [%f,%f]", frame, name, v, lo, hi)
		}
	}
	for b := 0; b < NumBands; b++ {
		inRange("bandValue", s.BandValues[b], 0, 1.5)
		inRange("bandPeak", s.BandPeaks[b], 0, 1.5)
		inRange("onsetDecay", s.OnsetDecay[b], 0, 1.5)
	}
	inRange("spectralCentroid", s.SpectralCentroid, 0, 1)
	inRange("spectralFlatness", s.SpectralFlatness, 0, 1)
	inRange("spectralFlux", s.SpectralFlux, 0, 100)
	inRange("energy", s.Energy, 0, 1.5)
	inRange("rms", s.RMS, 0, 1)
	inRange("rmsSmooth", s.RMSSmooth, 0, 1)
	inRange("rmsPeak", s.RMSPeak, 0, 1)
	inRange("transientSharpness", s.TransientSharpness, 0, 1)
	inRange("harmonicRatio", s.HarmonicRatio, 0, 1)
	for n := SubBass; n < NumNamedBands; n++ {
		inRange(n.String(), s.Envelope(n), 0, 1.5)
	}
	inRange("onsetKick", s.OnsetKick, 0, 1.5)
	inRange("onsetSnare", s.OnsetSnare, 0, 1.5)
	inRange("onsetHihat", s.OnsetHihat, 0, 1.5)
	inRange("onsetGlobal", s.OnsetGlobal, 0, 1.5)
	inRange("bpmSmooth", s.BPMSmooth, 1, 400)
	inRange("beatInterval", s.BeatInterval, 1, 3000)
	for pc := range s.Chroma {
		inRange("chroma", s.Chroma[pc], 0, 1)
	}
	if s.RootNote < -1 || s.RootNote > 11 {
		t.Fatalf("frame %d: rootNote=%d", frame, s.RootNote)
	}
}

func TestAnalyzeRandomInputStaysInRange(t *testing.T) {
	a := New(Config{SampleRate: testRate, FFTSize: testFFT})
	rng := rand.New(rand.NewSource(7))
	freq := make([]uint8, testFFT/2)
	wave := make([]uint8, testFFT)

	for frame := 0; frame < 600; frame++ {
		for i := range freq {
			freq[i] = uint8(rng.Intn(256))
		}
		for i := range wave {
			wave[i] = uint8(rng.Intn(256))
		}
		dt := 0.005 + rng.Float64()*0.045
		alpha := rng.Float64()
		a.Analyze(freq, wave, dt, alpha)
		checkSnapshot(t, frame, a.Snapshot())
	}
}

func TestAnalyzeFreshSnapshotIsFinite(t *testing.T) {
	a := New(Config{})
	s := a.Snapshot()
	checkSnapshot(t, -1, s)
	if s.RootNote != -1 || s.NoteName != "" {
		t.Fatalf("expected undefined root, got %d %q", s.RootNote, s.NoteName)
	}
	if a.BPM() != 120 {
		t.Fatalf("BPM=%d want 120", a.BPM())
	}
}

func TestAnalyzeZeroDeltaIsIdempotent(t *testing.T) {
	a := New(Config{SampleRate: testRate, FFTSize: testFFT})
	wave := silentWave()
	for frame := 0; frame < 45; frame++ {
		a.Analyze(kickSpectrum(frame%30 < 3), wave, tick, 0.2)
	}
	before := *a.Snapshot()
	freq := kickSpectrum(true)
	for i := 0; i < 5; i++ {
		if a.Analyze(freq, wave, 0, 0.2) {
			t.Fatalf("beat reported at dt=0")
		}
	}
	if *a.Snapshot() != before {
		t.Fatalf("snapshot changed at dt=0")
	}
}

func TestAnalyzeDetectsKickTempo(t *testing.T) {
	a := New(Config{SampleRate: testRate, FFTSize: testFFT})
	wave := silentWave()

	beats := 0
	maxBass, maxBrilliance := 0.0, 0.0
	// 60 fps, kick held for three frames every 30 frames (500 ms)
	for frame := 0; frame < 30*14; frame++ {
		on := frame >= 30 && frame%30 < 3
		if a.Analyze(kickSpectrum(on), wave, tick, 0.2) {
			beats++
		}
		s := a.Snapshot()
		checkSnapshot(t, frame, s)
		maxBass = math.Max(maxBass, s.Envelope(Bass))
		maxBrilliance = math.Max(maxBrilliance, s.Envelope(Brilliance))
	}
	if beats < 12 || beats > 13 {
		t.Fatalf("beats=%d want one per kick", beats)
	}
	if got := a.BPM(); math.Abs(float64(got)-120) > 2 {
		t.Fatalf("BPM=%d want 120±2", got)
	}
	s := a.Snapshot()
	if s.BeatCount != beats || s.BarCount != beats/4 {
		t.Fatalf("beatCount=%d barCount=%d for %d beats", s.BeatCount, s.BarCount, beats)
	}
	if maxBass <= maxBrilliance {
		t.Fatalf("bass envelope %f should exceed brilliance %f", maxBass, maxBrilliance)
	}
}

func TestAnalyzeChromaFindsRoot(t *testing.T) {
	a := New(Config{SampleRate: testRate, FFTSize: testFFT})
	freq := make([]uint8, testFFT/2)
	// bin 20 is ~431 Hz, which folds onto A
	freq[20] = 255
	wave := silentWave()
	for i := 0; i < 30; i++ {
		a.Analyze(freq, wave, tick, 0.3)
	}
	s := a.Snapshot()
	if s.RootNote != 9 || s.NoteName != "A" {
		t.Fatalf("root=%d %q want 9 A", s.RootNote, s.NoteName)
	}
	if s.Chroma[9] != 1 {
		t.Fatalf("chroma[A]=%f want 1", s.Chroma[9])
	}

	// silence keeps the previous root
	silent := make([]uint8, testFFT/2)
	for i := 0; i < 600; i++ {
		a.Analyze(silent, wave, tick, 0.3)
	}
	if s.RootNote != 9 {
		t.Fatalf("root lost during silence: %d", s.RootNote)
	}
}

func TestAnalyzeSilenceFallbacks(t *testing.T) {
	a := New(Config{SampleRate: testRate, FFTSize: testFFT})
	freq := make([]uint8, testFFT/2)
	wave := silentWave()
	for i := 0; i < 10; i++ {
		a.Analyze(freq, wave, tick, 0.2)
	}
	s := a.Snapshot()
	if s.SpectralCentroid != 0.5 {
		t.Fatalf("centroid=%f want fallback 0.5", s.SpectralCentroid)
	}
	if s.SpectralFlatness != 0 || s.Energy != 0 || s.RMS != 0 {
		t.Fatalf("silence produced flatness=%f energy=%f rms=%f", s.SpectralFlatness, s.Energy, s.RMS)
	}
}

func TestAnalyzeHandlesShortInputs(t *testing.T) {
	a := New(Config{SampleRate: testRate, FFTSize: testFFT})
	for i := 0; i < 10; i++ {
		a.Analyze(nil, nil, tick, 0.2)
		a.Analyze([]uint8{255, 255}, []uint8{0}, tick, math.NaN())
	}
	checkSnapshot(t, 0, a.Snapshot())
}

func TestReconfigureRecomputesEdges(t *testing.T) {
	a := New(Config{SampleRate: 22_050, FFTSize: 1024})
	before := a.BandEdges()
	if before[NumBands] > 11_025 {
		t.Fatalf("last edge %f above nyquist", before[NumBands])
	}
	a.Reconfigure(48_000, 4096)
	after := a.BandEdges()
	if len(after) != NumBands+1 {
		t.Fatalf("edges=%d want %d", len(after), NumBands+1)
	}
	if after[NumBands] <= before[NumBands] {
		t.Fatalf("edges not recomputed: %f -> %f", before[NumBands], after[NumBands])
	}
	a.Analyze(make([]uint8, 2048), silentWave(), tick, 0.2)
	checkSnapshot(t, 0, a.Snapshot())
}

func TestResetRestoresDefaults(t *testing.T) {
	a := New(Config{SampleRate: testRate, FFTSize: testFFT})
	wave := silentWave()
	for frame := 0; frame < 200; frame++ {
		a.Analyze(kickSpectrum(frame%30 < 3), wave, tick, 0.2)
	}
	a.Reset()
	s := a.Snapshot()
	if s.BeatCount != 0 || s.BPMSmooth != DefaultBPM || s.RootNote != -1 || s.Energy != 0 {
		t.Fatalf("reset left state: %+v", *s)
	}
}
