package analyzer

import "math"

// FeatureSnapshot is the complete set of musical features for the latest
// frame. It is owned by the Analyzer and overwritten on every Analyze call.
type FeatureSnapshot struct {
	BandValues [NumBands]float64 `json:"bandValues"`
	BandPeaks  [NumBands]float64 `json:"-"`
	OnsetDecay [NumBands]float64 `json:"-"`

	SpectralCentroid   float64 `json:"spectralCentroid"`
	SpectralFlux       float64 `json:"spectralFlux"`
	SpectralFlatness   float64 `json:"spectralFlatness"`
	Energy             float64 `json:"energy"`
	RMS                float64 `json:"rms"`
	RMSSmooth          float64 `json:"rmsSmooth"`
	RMSPeak            float64 `json:"rmsPeak"`
	TransientSharpness float64 `json:"transientSharpness"`
	HarmonicRatio      float64 `json:"harmonicRatio"`

	// Envelopes is indexed by NamedBand (SubBass..Brilliance).
	Envelopes [NumNamedBands]float64 `json:"envelopes"`

	OnsetKick   float64 `json:"onsetKick"`
	OnsetSnare  float64 `json:"onsetSnare"`
	OnsetHihat  float64 `json:"onsetHihat"`
	OnsetGlobal float64 `json:"onsetGlobal"`

	BPMSmooth    float64   `json:"bpmSmooth"`
	BeatInterval float64   `json:"beatInterval"` // milliseconds
	BeatCount    int       `json:"beatCount"`
	BarCount     int       `json:"barCount"`
	BeatState    BeatState `json:"beatState"`

	Chroma   [12]float64 `json:"chroma"`
	RootNote int         `json:"rootNote"` // -1 when undetermined
	NoteName string      `json:"noteName"`
}

// Envelope returns the smoothed envelope of a named band.
func (s *FeatureSnapshot) Envelope(n NamedBand) float64 {
	if n < 0 || n >= NumNamedBands {
		return 0
	}
	return s.Envelopes[n]
}

// Config controls Analyzer behavior.
type Config struct {
	SampleRate  float64
	FFTSize     int
	MinHz       float64
	MaxHz       float64
	Sensitivity float64
}

const (
	minAlpha = 0.05
	maxAlpha = 0.4
)

// Analyzer turns frequency/time-domain frames into a FeatureSnapshot.
// It is not safe for concurrent use.
type Analyzer struct {
	mapper  *bandMapper
	onsets  *onsetDetector
	extract *featureExtractor
	tracker *BeatTracker

	now  float64
	snap FeatureSnapshot
}

// New creates an Analyzer with sensible defaults.
func New(cfg Config) *Analyzer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44_100
	}
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = 2048
	}
	if cfg.MinHz <= 0 {
		cfg.MinHz = defaultMinHz
	}
	if cfg.MaxHz <= cfg.MinHz {
		cfg.MaxHz = defaultMaxHz
	}
	if cfg.Sensitivity <= 0 {
		cfg.Sensitivity = 1.0
	}

	mapper := newBandMapper(cfg.SampleRate, cfg.FFTSize, cfg.MinHz, cfg.MaxHz)
	a := &Analyzer{
		mapper:  mapper,
		onsets:  newOnsetDetector(&mapper.centers, cfg.Sensitivity),
		extract: newFeatureExtractor(&mapper.centers),
		tracker: NewBeatTracker(),
	}
	a.resetSnapshot()
	return a
}

// Reconfigure recomputes the band layout for a new sample rate or FFT size.
// Detection history is kept.
func (a *Analyzer) Reconfigure(sampleRate float64, fftSize int) {
	if sampleRate == a.mapper.sampleRate && fftSize == a.mapper.fftSize {
		return
	}
	a.mapper.recompute(sampleRate, fftSize)
	a.onsets.setCenters(&a.mapper.centers)
	a.extract.setCenters(&a.mapper.centers)
}

// SetSensitivity scales the strength of fired onsets.
func (a *Analyzer) SetSensitivity(s float64) {
	if s > 0 && isFinite(s) {
		a.onsets.sensitivity = s
	}
}

// BandEdges returns a copy of the current band boundaries in Hz.
func (a *Analyzer) BandEdges() []float64 {
	out := make([]float64, len(a.mapper.edges))
	copy(out, a.mapper.edges)
	return out
}

// Analyze processes one frame and reports whether a beat fired. freq holds
// one byte per FFT bin and timeDomain the waveform bytes centred on 128.
// dt is the tick duration in seconds and alpha the bin smoothing factor,
// clamped to [0.05, 0.4]. A frame with dt <= 0 leaves the snapshot unchanged.
func (a *Analyzer) Analyze(freq, timeDomain []uint8, dt, alpha float64) bool {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return false
	}
	if !isFinite(alpha) {
		alpha = minAlpha
	}
	alpha = clampFloat(alpha, minAlpha, maxAlpha)
	a.now += dt
	snap := &a.snap

	a.mapper.smoothBins(freq, alpha, dt)
	a.mapper.mapBands(&snap.BandValues)

	peakDecay := frameDecay(bandPeakDecay, dt)
	for b, v := range snap.BandValues {
		snap.BandPeaks[b] = math.Max(v, snap.BandPeaks[b]*peakDecay)
	}

	a.onsets.process(&snap.BandValues, a.now, dt)
	snap.OnsetDecay = a.onsets.bandOnset
	snap.OnsetGlobal = a.onsets.onset[ChannelGlobal]
	snap.OnsetKick = a.onsets.onset[ChannelKick]
	snap.OnsetSnare = a.onsets.onset[ChannelSnare]
	snap.OnsetHihat = a.onsets.onset[ChannelHihat]

	a.extract.extract(snap, timeDomain, &a.onsets.flux, dt)

	beat := a.tracker.Update(snap.OnsetKick, a.now)
	snap.BPMSmooth = a.tracker.SmoothBPM()
	snap.BeatInterval = a.tracker.Interval()
	snap.BeatCount = a.tracker.Beats()
	snap.BarCount = a.tracker.Bars()
	snap.BeatState = a.tracker.State()

	updateChroma(snap, a.mapper.smoothed, a.mapper.binHz())
	return beat
}

// Snapshot returns the live feature snapshot. Callers must treat it as
// read-only; it is overwritten by the next Analyze call.
func (a *Analyzer) Snapshot() *FeatureSnapshot {
	return &a.snap
}

// BPM returns the rounded tempo estimate, 120 until a tempo is measured.
func (a *Analyzer) BPM() int {
	return a.tracker.BPM()
}

// Flux returns the latest flux and adaptive threshold of a channel.
func (a *Analyzer) Flux(c Channel) (flux, threshold float64) {
	if c < 0 || c >= numChannels {
		return 0, 0
	}
	return a.onsets.flux[c], a.onsets.threshold[c]
}

// Reset clears all detection and smoothing state, keeping the band layout.
func (a *Analyzer) Reset() {
	a.mapper.reset()
	a.onsets.reset()
	a.tracker.Reset()
	a.now = 0
	a.resetSnapshot()
}

func (a *Analyzer) resetSnapshot() {
	a.snap = FeatureSnapshot{
		SpectralCentroid: 0.5,
		BPMSmooth:        DefaultBPM,
		BeatInterval:     60_000 / DefaultBPM,
		RootNote:         -1,
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp01(v float64) float64 {
	return clampFloat(v, 0, 1)
}

func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

func clampInt(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
