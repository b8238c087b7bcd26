package core

import "math"

const (
	// SeaLevelDensity is the air density at zero altitude (kg/m³).
	SeaLevelDensity = 1.225
	// ScaleHeight is the altitude over which density falls by 1/e (metres).
	ScaleHeight = 8500.0
)

// AtmosphereDensity returns the exponential-atmosphere air density in kg/m³
// at the given altitude in metres. Altitudes below sea level clamp to
// SeaLevelDensity.
func AtmosphereDensity(altitude float64) float64 {
	if altitude < 0 {
		return SeaLevelDensity
	}
	return SeaLevelDensity * math.Exp(-altitude/ScaleHeight)
}
