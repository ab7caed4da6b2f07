package app

import (
	"math"
	"math/rand"
)

const (
	synthSampleRate = 44_100.0
	synthGain       = 0.9
)

// padChord is A minor.
var padChord = []float64{220.0, 261.63, 329.63}

// synth renders a simple four-on-the-floor loop so the pipeline can run
// without audio hardware: kicks on every beat, snares on two and four, hats
// on the off eighths and a quiet pad.
type synth struct {
	rate  float64
	bpm   float64
	buf   []float32
	t     float64
	carry float64
	rng   *rand.Rand
	prevN float64
}

func newSynth(bpm float64, size int, seed int64) *synth {
	if bpm <= 0 {
		bpm = 120
	}
	return &synth{
		rate: synthSampleRate,
		bpm:  bpm,
		buf:  make([]float32, size),
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Advance renders dt seconds of audio into the tail of the window.
func (s *synth) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	exact := dt*s.rate + s.carry
	n := int(exact)
	s.carry = exact - float64(n)
	if n <= 0 {
		return
	}
	if n > len(s.buf) {
		s.t += float64(n-len(s.buf)) / s.rate
		n = len(s.buf)
	}
	copy(s.buf, s.buf[n:])
	tail := s.buf[len(s.buf)-n:]
	for i := range tail {
		tail[i] = float32(s.sample(s.t))
		s.t += 1 / s.rate
	}
}

func (s *synth) sample(t float64) float64 {
	beat := 60 / s.bpm
	pos := math.Mod(t, beat)
	index := int(t / beat)
	noise := s.rng.Float64()*2 - 1

	out := 0.0
	if pos < 0.3 {
		sweep := 45*pos + 75*(1-math.Exp(-pos*25))/25
		out += 0.8 * math.Exp(-pos*18) * math.Sin(2*math.Pi*sweep)
	}
	if index%2 == 1 && pos < 0.2 {
		out += 0.3 * math.Exp(-pos*25) * noise
		out += 0.2 * math.Exp(-pos*30) * math.Sin(2*math.Pi*190*pos)
	}
	if hat := math.Mod(t, beat/2); int(t/(beat/2))%2 == 1 && hat < 0.05 {
		out += 0.15 * math.Exp(-hat*80) * (noise - s.prevN)
	}
	s.prevN = noise
	for _, hz := range padChord {
		out += 0.04 * math.Sin(2*math.Pi*hz*t)
	}
	return math.Max(-1, math.Min(1, out*synthGain))
}

func (s *synth) Samples(dst []float32) []float32 {
	if cap(dst) < len(s.buf) {
		dst = make([]float32, len(s.buf))
	}
	dst = dst[:len(s.buf)]
	copy(dst, s.buf)
	return dst
}

func (s *synth) SampleRate() float64 { return s.rate }

func (s *synth) Close() error { return nil }
