package core

import "strings"

// Color names one of the predefined status LED colours.
type Color int8

const (
	Red Color = iota
	Green
	Blue
	Pink
	Cyan
	Aqua
	White
	Black
	Yellow

	NumColors = int(Yellow) + 1
)

// ColorSpec holds the three duty cycles of a colour. The reset button LED is
// common-anode, so a lower value is brighter: 0 full on, 255 off.
type ColorSpec struct {
	Name  string
	Red   uint8
	Green uint8
	Blue  uint8
}

var colorTable = [NumColors]ColorSpec{
	Red:    {"RED", 0, 255, 255},
	Green:  {"GREEN", 255, 0, 255},
	Blue:   {"BLUE", 255, 255, 0},
	Pink:   {"PINK", 128, 255, 0},
	Cyan:   {"CYAN", 255, 128, 0},
	Aqua:   {"AQUA", 255, 128, 128},
	White:  {"WHITE", 128, 128, 128},
	Black:  {"BLACK", 255, 255, 255},
	Yellow: {"YELLOW", 0, 0, 255},
}

// cycleOrder is the rotation used by LedCycle.
var cycleOrder = [...]Color{Red, Blue, Green, Pink, Cyan}

// Valid reports whether c is in the colour table.
func (c Color) Valid() bool {
	return c >= 0 && int(c) < NumColors
}

// Resolve maps an unknown colour to White.
func (c Color) Resolve() Color {
	if !c.Valid() {
		return White
	}
	return c
}

// Spec returns the duty cycles for c, White for unknown colours.
func (c Color) Spec() ColorSpec {
	return colorTable[c.Resolve()]
}

func (c Color) String() string {
	return c.Spec().Name
}

// ColorByName looks up a colour by case-insensitive name.
func ColorByName(name string) (Color, bool) {
	name = strings.ToUpper(name)
	if name == "CYANNE" {
		return Cyan, true
	}
	for i, spec := range colorTable {
		if spec.Name == name {
			return Color(i), true
		}
	}
	return White, false
}
