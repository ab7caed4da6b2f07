package analyzer

import (
	"fmt"
	"math"
)

// BeatState is the phase of the beat tracker state machine.
type BeatState int

const (
	BeatIdle BeatState = iota
	BeatArmed
	BeatFired
	BeatGated
)

func (s BeatState) String() string {
	switch s {
	case BeatIdle:
		return "idle"
	case BeatArmed:
		return "armed"
	case BeatFired:
		return "fired"
	case BeatGated:
		return "gated"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s BeatState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *BeatState) UnmarshalText(text []byte) error {
	for st := BeatIdle; st <= BeatGated; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown beat state %q", text)
}

const (
	beatKickThreshold = 0.3
	beatMinGap        = 0.180 // seconds between beats
	beatGate          = 0.100 // seconds after a beat

	minIntervalMs = 180.0
	maxIntervalMs = 2500.0

	intervalBlend = 0.25
	bpmBlend      = 0.15

	// bounds for the raw fallback estimate
	fallbackMinMs = 240.0
	fallbackMaxMs = 2000.0

	DefaultBPM = 120.0

	beatsPerBar = 4
)

// BeatTracker derives beats and a double-smoothed tempo from kick onsets.
type BeatTracker struct {
	state     BeatState
	lastBeat  float64
	gateUntil float64

	interval  float64 // smoothed inter-beat interval, ms; 0 until measured
	bpmSmooth float64 // 0 until measured

	beats int
	bars  int
}

// NewBeatTracker returns a tracker that has not seen a beat yet.
func NewBeatTracker() *BeatTracker {
	t := &BeatTracker{}
	t.Reset()
	return t
}

// Reset forgets every observed beat.
func (t *BeatTracker) Reset() {
	*t = BeatTracker{
		state:     BeatIdle,
		lastBeat:  math.Inf(-1),
		gateUntil: math.Inf(-1),
	}
}

// Update feeds the current kick onset strength at time now (seconds) and
// reports whether a beat fired.
func (t *BeatTracker) Update(kick, now float64) bool {
	if now < t.gateUntil {
		t.state = BeatGated
		return false
	}
	if !(kick > beatKickThreshold) {
		t.state = BeatIdle
		return false
	}
	if now-t.lastBeat < beatMinGap {
		t.state = BeatArmed
		return false
	}

	if !math.IsInf(t.lastBeat, -1) {
		t.observeInterval((now - t.lastBeat) * 1000)
	}
	t.lastBeat = now
	t.gateUntil = now + beatGate
	t.state = BeatFired

	t.beats++
	if t.beats%beatsPerBar == 0 {
		t.bars++
	}
	return true
}

func (t *BeatTracker) observeInterval(ms float64) {
	if ms < minIntervalMs || ms > maxIntervalMs {
		return
	}
	if t.interval <= 0 {
		t.interval = ms
	} else {
		t.interval += (ms - t.interval) * intervalBlend
	}
	bpm := 60_000 / t.interval
	if t.bpmSmooth <= 0 {
		t.bpmSmooth = bpm
	} else {
		t.bpmSmooth += (bpm - t.bpmSmooth) * bpmBlend
	}
}

// BPM returns the rounded smoothed tempo, falling back to a clamped raw
// estimate and finally to DefaultBPM.
func (t *BeatTracker) BPM() int {
	if t.bpmSmooth > 0 && isFinite(t.bpmSmooth) {
		return int(math.Round(t.bpmSmooth))
	}
	if t.interval > 0 && isFinite(t.interval) {
		return int(math.Round(60_000 / clampFloat(t.interval, fallbackMinMs, fallbackMaxMs)))
	}
	return DefaultBPM
}

// SmoothBPM returns the unrounded tempo, DefaultBPM until measured.
func (t *BeatTracker) SmoothBPM() float64 {
	if t.bpmSmooth > 0 && isFinite(t.bpmSmooth) {
		return t.bpmSmooth
	}
	return DefaultBPM
}

// Interval returns the smoothed beat interval in milliseconds.
func (t *BeatTracker) Interval() float64 {
	if t.interval > 0 && isFinite(t.interval) {
		return t.interval
	}
	return 60_000 / DefaultBPM
}

func (t *BeatTracker) State() BeatState { return t.state }
func (t *BeatTracker) Beats() int       { return t.beats }
func (t *BeatTracker) Bars() int        { return t.bars }
