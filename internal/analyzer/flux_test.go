package analyzer

import (
	"math"
	"testing"
)

const tick = 1.0 / 60

func testCenters() *[NumBands]float64 {
	m := newBandMapper(44_100, 2048, defaultMinHz, defaultMaxHz)
	return &m.centers
}

func lowBandFrame(centers *[NumBands]float64, level float64) [NumBands]float64 {
	var frame [NumBands]float64
	for b, hz := range centers {
		if hz < 150 {
			frame[b] = level
		}
	}
	return frame
}

func TestBandWeightsOverlapKickAndSnare(t *testing.T) {
	centers := testCenters()
	w := computeBandWeights(centers)
	overlap := false
	for b, hz := range centers {
		if hz >= 200 && hz < 400 {
			if w[ChannelKick][b] != 0.5 || w[ChannelSnare][b] != 1.0 {
				t.Fatalf("band %d (%.0f Hz) kick=%f snare=%f", b, hz, w[ChannelKick][b], w[ChannelSnare][b])
			}
			overlap = true
		}
		if hz >= 4000 && w[ChannelHihat][b] != 1.5 {
			t.Fatalf("band %d (%.0f Hz) hihat weight=%f", b, hz, w[ChannelHihat][b])
		}
	}
	if !overlap {
		t.Fatalf("expected at least one band between 200 and 400 Hz")
	}
}

func TestOnsetFiresOnKickAndDecays(t *testing.T) {
	centers := testCenters()
	d := newOnsetDetector(centers, 1.0)
	quiet := lowBandFrame(centers, 0.05)
	kick := lowBandFrame(centers, 1.0)

	now := 0.0
	for i := 0; i < 20; i++ {
		now += tick
		d.process(&quiet, now, tick)
	}
	if d.onset[ChannelKick] != 0 {
		t.Fatalf("kick onset fired on steady input: %f", d.onset[ChannelKick])
	}

	now += tick
	d.process(&kick, now, tick)
	if !d.fired[ChannelKick] {
		t.Fatalf("expected kick onset to fire, flux=%f threshold=%f", d.flux[ChannelKick], d.threshold[ChannelKick])
	}
	if d.onset[ChannelKick] < minOnsetStrength || d.onset[ChannelKick] > maxOnsetStrength {
		t.Fatalf("kick strength out of range: %f", d.onset[ChannelKick])
	}
	if d.fired[ChannelHihat] {
		t.Fatalf("hihat should not fire on a low-frequency hit")
	}

	prev := d.onset[ChannelKick]
	for i := 0; i < 40; i++ {
		now += tick
		d.process(&kick, now, tick)
		cur := d.onset[ChannelKick]
		if cur >= prev {
			t.Fatalf("step %d: onset did not decay: %f >= %f", i, cur, prev)
		}
		if want := prev * channelTunings[ChannelKick].decay; math.Abs(cur-want) > 1e-9 {
			t.Fatalf("step %d: onset=%f want geometric %f", i, cur, want)
		}
		prev = cur
	}
	if prev > 0.01 {
		t.Fatalf("onset did not approach zero: %f", prev)
	}
}

func TestOnsetCooldown(t *testing.T) {
	centers := testCenters()
	d := newOnsetDetector(centers, 1.0)
	var frame [NumBands]float64

	now := 0.0
	for i := 0; i < minFluxHistory; i++ {
		now += tick
		d.process(&frame, now, tick)
	}

	fires := 0
	// alternate between silence and a kick every tick for one second
	for i := 0; i < 60; i++ {
		now += tick
		if i%2 == 0 {
			frame = lowBandFrame(centers, 1.0)
		} else {
			frame = [NumBands]float64{}
		}
		d.process(&frame, now, tick)
		if d.fired[ChannelKick] {
			fires++
		}
	}
	maxFires := int(1.0/channelTunings[ChannelKick].cooldown) + 1
	if fires == 0 || fires > maxFires {
		t.Fatalf("kick fired %d times, want 1..%d", fires, maxFires)
	}
}

func TestOnsetNeedsHistory(t *testing.T) {
	centers := testCenters()
	d := newOnsetDetector(centers, 1.0)
	kick := lowBandFrame(centers, 1.0)
	var silence [NumBands]float64

	d.process(&silence, tick, tick)
	d.process(&kick, 2*tick, tick)
	if d.fired[ChannelKick] {
		t.Fatalf("onset fired before history warmed up")
	}
}

func TestOnsetReset(t *testing.T) {
	centers := testCenters()
	d := newOnsetDetector(centers, 1.0)
	kick := lowBandFrame(centers, 1.0)
	d.process(&kick, tick, tick)
	d.reset()
	if d.primed || d.history[ChannelKick].len() != 0 || d.onset[ChannelKick] != 0 {
		t.Fatalf("reset left state behind")
	}
}
