package analyzer

import "math"

// Channel identifies an onset detection channel.
type Channel int

const (
	ChannelGlobal Channel = iota
	ChannelKick
	ChannelSnare
	ChannelHihat
	numChannels
)

func (c Channel) String() string {
	switch c {
	case ChannelGlobal:
		return "global"
	case ChannelKick:
		return "kick"
	case ChannelSnare:
		return "snare"
	case ChannelHihat:
		return "hihat"
	default:
		return "unknown"
	}
}

type channelTuning struct {
	k        float64 // MAD multiplier of the adaptive threshold
	cooldown float64 // seconds
	decay    float64 // per 60 Hz tick
}

var channelTunings = [numChannels]channelTuning{
	ChannelGlobal: {k: 2.2, cooldown: 0.080, decay: 0.90},
	ChannelKick:   {k: 2.0, cooldown: 0.150, decay: 0.85},
	ChannelSnare:  {k: 2.4, cooldown: 0.100, decay: 0.82},
	ChannelHihat:  {k: 2.6, cooldown: 0.050, decay: 0.78},
}

const (
	fluxHistorySize = 48
	// onsets are suppressed until the history holds enough samples to be
	// meaningful.
	minFluxHistory = 4
	// threshold floor so near-silence never fires.
	minFluxThreshold = 0.02

	minOnsetStrength = 0.5
	maxOnsetStrength = 1.5

	bandOnsetGain  = 4.0
	bandOnsetDecay = 0.85
)

// bandWeights holds the per-channel contribution of every band, derived
// from the band centre frequency.
type bandWeights [numChannels][NumBands]float64

func computeBandWeights(centers *[NumBands]float64) bandWeights {
	var w bandWeights
	for b, hz := range centers {
		w[ChannelGlobal][b] = 1.0
		switch {
		case hz < 150:
			w[ChannelKick][b] = 2.0
		case hz < 400:
			w[ChannelKick][b] = 0.5
		}
		// 200-400 Hz feeds both kick and snare.
		if hz >= 200 && hz < 2000 {
			w[ChannelSnare][b] = 1.0
		}
		if hz >= 4000 {
			w[ChannelHihat][b] = 1.5
		}
	}
	return w
}

// onsetDetector turns successive band frames into spectral flux and
// decaying onset envelopes.
type onsetDetector struct {
	weights     bandWeights
	sensitivity float64

	prevBands [NumBands]float64
	primed    bool

	flux      [numChannels]float64
	threshold [numChannels]float64
	history   [numChannels]*ring
	lastFire  [numChannels]float64
	onset     [numChannels]float64
	fired     [numChannels]bool

	bandOnset [NumBands]float64
}

func newOnsetDetector(centers *[NumBands]float64, sensitivity float64) *onsetDetector {
	d := &onsetDetector{
		weights:     computeBandWeights(centers),
		sensitivity: sensitivity,
	}
	for c := range d.history {
		d.history[c] = newRing(fluxHistorySize)
		d.lastFire[c] = math.Inf(-1)
	}
	return d
}

func (d *onsetDetector) setCenters(centers *[NumBands]float64) {
	d.weights = computeBandWeights(centers)
}

// process consumes one band frame at time now (seconds).
func (d *onsetDetector) process(bands *[NumBands]float64, now, dt float64) {
	var sums [numChannels]float64
	bandDecay := frameDecay(bandOnsetDecay, dt)
	for b, v := range bands {
		delta := 0.0
		if d.primed {
			delta = math.Max(v-d.prevBands[b], 0)
		}
		sq := delta * delta
		for c := range sums {
			sums[c] += sq * d.weights[c][b]
		}
		d.bandOnset[b] = math.Max(d.bandOnset[b]*bandDecay, clampFloat(delta*bandOnsetGain, 0, maxOnsetStrength))
		d.prevBands[b] = v
	}
	d.primed = true

	for c := Channel(0); c < numChannels; c++ {
		tuning := channelTunings[c]
		flux := math.Sqrt(sums[c])
		hist := d.history[c]

		threshold := math.Max(hist.threshold(tuning.k), minFluxThreshold)
		d.flux[c] = flux
		d.threshold[c] = threshold

		fresh := 0.0
		d.fired[c] = false
		if hist.len() >= minFluxHistory && flux > threshold && now-d.lastFire[c] >= tuning.cooldown {
			fresh = clampFloat((flux/threshold-1)*d.sensitivity, minOnsetStrength, maxOnsetStrength)
			d.lastFire[c] = now
			d.fired[c] = true
		}
		d.onset[c] = math.Max(fresh, d.onset[c]*frameDecay(tuning.decay, dt))
		hist.push(flux)
	}
}

func (d *onsetDetector) reset() {
	d.primed = false
	d.prevBands = [NumBands]float64{}
	d.flux = [numChannels]float64{}
	d.threshold = [numChannels]float64{}
	d.onset = [numChannels]float64{}
	d.fired = [numChannels]bool{}
	d.bandOnset = [NumBands]float64{}
	for c := range d.history {
		d.history[c].reset()
		d.lastFire[c] = math.Inf(-1)
	}
}
