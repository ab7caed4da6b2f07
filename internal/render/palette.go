package render

var palettes = map[string][]rune{
	"default": []rune(" .,:-;+=*%#@▓▒░█"),
	"box":     []rune(" ░▒▓█▚▞▛▜▙▟"),
	"lines":   []rune(" `.-=+*/\\|╱╲╳╔╗╚╝═║╬"),
	"spark":   []rune("  ´`^\"~:;*+×•¤°oO@#█"),
	"blocks":  []rune(" ▁▂▃▄▅▆▇█"),
}

var paletteOrder = []string{"default", "box", "lines", "spark", "blocks"}

// Palette returns the glyph ramp for name, falling back to "default".
func Palette(name string) []rune {
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes["default"]
}

// PaletteNames returns all palette identifiers.
func PaletteNames() []string {
	out := make([]string, len(paletteOrder))
	copy(out, paletteOrder)
	return out
}
