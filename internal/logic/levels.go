package logic

import "math"

// windTable holds the upper bound in Hz for wind levels 0..10.
// Anything above the last bound is level 11.
var windTable = [...]float64{2.00, 5.78, 9.56, 13.34, 17.12, 20.90, 24.68, 28.46, 32.24, 36.02, 39.80}

// MaxWindLevel is the highest level WindLevel returns.
const MaxWindLevel = len(windTable)

// WindLevel discretizes an anemometer frequency.
func WindLevel(hz float64) int {
	for level, bound := range windTable {
		if hz <= bound {
			return level
		}
	}
	return MaxWindLevel
}

// sunTable holds the lower bound of the raw MCP3204 reading for sun levels
// 0..15. Readings are inverted: bright light pulls the value down.
var sunTable = [...]float64{3990, 3675, 3530, 3250, 2750, 2500, 2100, 1800, 1500, 1100, 700, 350, 200, 150, 100, 50}

// SunDark is the level reported for a small positive reading below the table.
const SunDark = 20

// SunLevel discretizes an averaged raw light reading.
// A reading of zero or less means the sensor is absent and maps to 0.
func SunLevel(avg float64) int {
	for level, bound := range sunTable {
		if avg > bound {
			return level
		}
	}
	if avg > 0 {
		return SunDark
	}
	return 0
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
