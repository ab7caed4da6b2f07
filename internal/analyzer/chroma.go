package analyzer

import "math"

const (
	chromaMinBin = 4
	chromaMaxBin = 400
	chromaMinHz  = 30.0
	chromaMaxHz  = 4000.0
	// accumulated energy the strongest pitch class needs to claim the root
	chromaNoiseFloor = 0.1
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the pitch class name for 0..11, or "" otherwise.
func NoteName(pc int) string {
	if pc < 0 || pc >= len(noteNames) {
		return ""
	}
	return noteNames[pc]
}

// pitchClass folds a frequency onto 0..11 with C = 0.
func pitchClass(hz float64) int {
	midi := 69 + 12*math.Log2(hz/440)
	pc := int(math.Round(midi)) % 12
	if pc < 0 {
		pc += 12
	}
	return pc
}

// updateChroma accumulates the smoothed low bins into a 12-slot histogram,
// normalises it and picks the root note when it clears the noise floor.
func updateChroma(snap *FeatureSnapshot, smoothed []float64, binHz float64) {
	var acc [12]float64
	last := min(chromaMaxBin, len(smoothed)-1)
	for i := chromaMinBin; i <= last; i++ {
		hz := float64(i) * binHz
		if hz < chromaMinHz {
			continue
		}
		if hz > chromaMaxHz {
			break
		}
		acc[pitchClass(hz)] += smoothed[i]
	}

	best, bestVal := 0, 0.0
	for pc, v := range acc {
		if v > bestVal {
			best, bestVal = pc, v
		}
	}
	for pc := range acc {
		if bestVal > epsilon {
			snap.Chroma[pc] = acc[pc] / bestVal
		} else {
			snap.Chroma[pc] = 0
		}
	}
	if bestVal > chromaNoiseFloor {
		snap.RootNote = best
		snap.NoteName = NoteName(best)
	}
}
