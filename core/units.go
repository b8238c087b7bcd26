package core

import "math"

// JoulesPerMegaton is the energy of one megaton of TNT.
const JoulesPerMegaton = 4.184e15

// InitialMass returns the mass in kg of a sphere of the given diameter (m)
// and bulk density (kg/m³).
func InitialMass(diameter, density float64) float64 {
	r := diameter / 2
	return 4.0 / 3.0 * math.Pi * r * r * r * density
}

// KineticEnergy returns 0.5·m·v² in joules.
func KineticEnergy(mass, velocity float64) float64 {
	return 0.5 * mass * velocity * velocity
}

// JoulesToMegatons converts joules to megatons of TNT.
func JoulesToMegatons(joules float64) float64 {
	return joules / JoulesPerMegaton
}

// KmPerSecond converts km/s to m/s.
func KmPerSecond(v float64) float64 {
	return v * 1000
}
