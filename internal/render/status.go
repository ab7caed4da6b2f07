package render

import (
	"strconv"
	"strings"

	"github.com/guidoenr/resonance/internal/analyzer"
	"github.com/guidoenr/resonance/internal/motion"
)

const meterWidth = 16

var meterGlyphs = []rune(" ▁▂▃▄▅▆▇█")

func (r *Renderer) buildStatus(f *analyzer.FeatureSnapshot, m motion.Snapshot, fps float64) string {
	b := &r.status
	b.Reset()
	b.Grow(160)
	b.WriteString(strings.ToUpper(string(r.colorMode)))
	b.WriteString(" | ")
	b.WriteString(r.patternName)
	b.WriteByte('/')
	b.WriteString(r.paletteName)
	if r.colorOnAudio {
		b.WriteString(" col=AUDIO")
	}
	b.WriteString(" | ")
	b.WriteString(strconv.Itoa(int(f.BPMSmooth + 0.5)))
	b.WriteString(" bpm ")
	if f.NoteName != "" {
		b.WriteString(f.NoteName)
	} else {
		b.WriteByte('-')
	}
	b.WriteString(" bar ")
	b.WriteString(strconv.Itoa(f.BarCount))
	b.WriteString(" | ")
	writeMeter(b, &f.BandValues)
	b.WriteString(" | kick ")
	appendFloat(b, f.OnsetKick, 2)
	b.WriteString(" snare ")
	appendFloat(b, f.OnsetSnare, 2)
	b.WriteString(" hat ")
	appendFloat(b, f.OnsetHihat, 2)
	b.WriteString(" pulse ")
	appendFloat(b, m.Pulse, 2)
	b.WriteString(" | fps ")
	appendFloat(b, fps, 1)
	return b.String()
}

// writeMeter draws the bands as a compact bar graph of meterWidth glyphs.
func writeMeter(b *strings.Builder, bands *[analyzer.NumBands]float64) {
	const group = analyzer.NumBands / meterWidth
	top := len(meterGlyphs) - 1
	for i := 0; i < meterWidth; i++ {
		peak := 0.0
		for _, v := range bands[i*group : (i+1)*group] {
			peak = max(peak, v)
		}
		b.WriteRune(meterGlyphs[clampInt(int(clamp01(peak)*float64(top)+0.5), 0, top)])
	}
}

func appendFloat(b *strings.Builder, value float64, precision int) {
	var buf [32]byte
	b.Write(strconv.AppendFloat(buf[:0], value, 'f', precision, 64))
}
