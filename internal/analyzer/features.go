package analyzer

import "math"

const (
	epsilon = 1e-9

	rmsAttackTau  = 0.005
	rmsReleaseTau = 0.150
	rmsPeakDecay  = 0.995

	zeroCrossingScale = 50.0
	maxEnergy         = 1.5

	bandPeakDecay = 0.96
)

// NamedBand indexes the smoothed perceptual band envelopes.
type NamedBand int

const (
	SubBass NamedBand = iota
	Bass
	LowMid
	Mid
	HighMid
	High
	Brilliance
	NumNamedBands
)

var namedBandNames = [NumNamedBands]string{
	"subBass", "bass", "lowMid", "mid", "highMid", "high", "brilliance",
}

func (n NamedBand) String() string {
	if n < 0 || n >= NumNamedBands {
		return "unknown"
	}
	return namedBandNames[n]
}

type namedBandSpec struct {
	loHz, hiHz float64
	attack     float64 // rate per second
	release    float64 // rate per second
	weight     float64 // contribution to composite energy
}

var namedBandSpecs = [NumNamedBands]namedBandSpec{
	SubBass:    {loHz: 20, hiHz: 60, attack: 12, release: 1.5, weight: 0.25},
	Bass:       {loHz: 60, hiHz: 250, attack: 12, release: 1.5, weight: 0.30},
	LowMid:     {loHz: 250, hiHz: 500, attack: 12, release: 2.5, weight: 0.15},
	Mid:        {loHz: 500, hiHz: 2000, attack: 6, release: 2.5, weight: 0.15},
	HighMid:    {loHz: 2000, hiHz: 4000, attack: 6, release: 2.5, weight: 0.10},
	High:       {loHz: 4000, hiHz: 6000, attack: 12, release: 2.5, weight: 0.05},
	Brilliance: {loHz: 6000, hiHz: 20000, attack: 12, release: 2.5, weight: 0},
}

// namedBandGroups lists the band indices belonging to each named band.
type namedBandGroups [NumNamedBands][]int

func computeNamedBandGroups(centers *[NumBands]float64) namedBandGroups {
	var groups namedBandGroups
	for n, spec := range namedBandSpecs {
		for b, hz := range centers {
			if hz >= spec.loHz && hz < spec.hiHz {
				groups[n] = append(groups[n], b)
			}
		}
		if len(groups[n]) == 0 {
			groups[n] = []int{nearestBand(centers, math.Sqrt(spec.loHz*spec.hiHz))}
		}
	}
	return groups
}

func nearestBand(centers *[NumBands]float64, hz float64) int {
	best, bestDist := 0, math.Inf(1)
	for b, c := range centers {
		if d := math.Abs(math.Log(c / hz)); d < bestDist {
			best, bestDist = b, d
		}
	}
	return best
}

// envelopeCoeff is the per-tick blend factor for a rate in 1/s; it
// approaches 1 as the rate grows.
func envelopeCoeff(rate, dt float64) float64 {
	return 1 - math.Pow(0.001, dt*rate)
}

// followerCoeff is the one-pole coefficient for time constant tau seconds.
func followerCoeff(tau, dt float64) float64 {
	if tau <= 0 {
		return 1
	}
	return 1 - math.Exp(-dt/tau)
}

// spectralCentroid returns the energy weighted mean band index in 0..1.
func spectralCentroid(bands *[NumBands]float64) float64 {
	sum, weighted := 0.0, 0.0
	for b, v := range bands {
		sum += v
		weighted += float64(b) * v
	}
	if sum < 1e-6 {
		return 0.5
	}
	return clamp01(weighted / sum / float64(NumBands-1))
}

// spectralFlatness is the ratio of geometric to arithmetic mean.
func spectralFlatness(bands *[NumBands]float64) float64 {
	logSum, sum := 0.0, 0.0
	for _, v := range bands {
		v = math.Max(v, 0)
		logSum += math.Log(v + epsilon)
		sum += v
	}
	mean := sum / NumBands
	if mean < 1e-6 {
		return 0
	}
	geo := math.Exp(logSum / NumBands)
	return clamp01(geo / (mean + epsilon))
}

// waveformStats returns the RMS level and the zero-crossing rate of a
// byte-range waveform centred on 128.
func waveformStats(samples []uint8) (rms, zcr float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	sumSq := 0.0
	crossings := 0
	prev := 0.0
	for i, b := range samples {
		s := (float64(b) - 128) / 128
		sumSq += s * s
		if i > 0 && (s >= 0) != (prev >= 0) {
			crossings++
		}
		prev = s
	}
	n := float64(len(samples))
	return math.Sqrt(sumSq / n), float64(crossings) / n
}

// featureExtractor owns the RMS follower and the named band envelopes.
type featureExtractor struct {
	groups namedBandGroups
}

func newFeatureExtractor(centers *[NumBands]float64) *featureExtractor {
	return &featureExtractor{groups: computeNamedBandGroups(centers)}
}

func (e *featureExtractor) setCenters(centers *[NumBands]float64) {
	e.groups = computeNamedBandGroups(centers)
}

// extract updates the scalar features and envelopes of snap in place.
func (e *featureExtractor) extract(snap *FeatureSnapshot, timeDomain []uint8, flux *[numChannels]float64, dt float64) {
	snap.SpectralCentroid = spectralCentroid(&snap.BandValues)
	snap.SpectralFlatness = spectralFlatness(&snap.BandValues)
	snap.SpectralFlux = flux[ChannelGlobal]

	rms, zcr := waveformStats(timeDomain)
	snap.RMS = rms
	snap.HarmonicRatio = clamp01(zcr * zeroCrossingScale)

	tau := rmsReleaseTau
	if rms > snap.RMSSmooth {
		tau = rmsAttackTau
	}
	snap.RMSSmooth += (rms - snap.RMSSmooth) * followerCoeff(tau, dt)
	snap.RMSPeak = math.Max(rms, snap.RMSPeak*frameDecay(rmsPeakDecay, dt))

	// share of transient energy sitting in the top end
	target := 0.0
	if total := flux[ChannelKick] + flux[ChannelHihat]; total > 1e-6 {
		target = flux[ChannelHihat] / total
	}
	snap.TransientSharpness += (target - snap.TransientSharpness) * frameCoeff(0.3, dt)

	energy := 0.0
	for n, spec := range namedBandSpecs {
		raw := 0.0
		for _, b := range e.groups[n] {
			raw += snap.BandValues[b]
		}
		raw /= float64(len(e.groups[n]))

		cur := snap.Envelopes[n]
		rate := spec.release
		if raw > cur {
			rate = spec.attack
		}
		cur += (raw - cur) * envelopeCoeff(rate, dt)
		snap.Envelopes[n] = cur
		energy += cur * spec.weight
	}
	snap.Energy = clampFloat(energy, 0, maxEnergy)
}
