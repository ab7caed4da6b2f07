package render

import (
	"math"
	"strconv"
	"strings"
)

type colorMode string

const (
	colorModeChromatic colorMode = "chromatic"
	colorModeFire      colorMode = "fire"
	colorModeAurora    colorMode = "aurora"
	colorModeMono      colorMode = "mono"
	colorModeKey       colorMode = "key"
)

// ColorModeNames returns the supported color modes.
func ColorModeNames() []string {
	return []string{
		string(colorModeAurora),
		string(colorModeChromatic),
		string(colorModeFire),
		string(colorModeKey),
		string(colorModeMono),
	}
}

func parseColorMode(name string) colorMode {
	switch strings.ToLower(name) {
	case "fire":
		return colorModeFire
	case "aurora", "cool":
		return colorModeAurora
	case "mono", "monochrome", "bw", "gray":
		return colorModeMono
	case "key", "note":
		return colorModeKey
	default:
		return colorModeChromatic
	}
}

const resetANSI = "\x1b[0m"

var ansiCodes [256]string

func init() {
	for i := range ansiCodes {
		ansiCodes[i] = "\x1b[38;5;" + strconv.Itoa(i) + "m"
	}
}

func colorCode(index int) string {
	return ansiCodes[clampInt(index, 0, len(ansiCodes)-1)]
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = h - math.Floor(h)
	s, v = clamp01(s), clamp01(v)
	if s == 0 {
		return v, v, v
	}
	hv := h * 6
	i := math.Floor(hv)
	f := hv - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// rgbToANSI maps onto the xterm 256 color cube, or the gray ramp for
// unsaturated colors.
func rgbToANSI(r, g, b float64) int {
	r, g, b = clamp01(r), clamp01(g), clamp01(b)
	if math.Abs(r-g) < 0.02 && math.Abs(g-b) < 0.02 {
		return 232 + int(clampFloat(math.Round(r*23), 0, 23))
	}
	ri := int(clampFloat(r*5+0.5, 0, 5))
	gi := int(clampFloat(g*5+0.5, 0, 5))
	bi := int(clampFloat(b*5+0.5, 0, 5))
	return 16 + 36*ri + 6*gi + bi
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

func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}
