package core

import "math"

// CrossSection returns the frontal area of a sphere of the given diameter.
func CrossSection(diameter float64) float64 {
	r := diameter / 2
	return math.Pi * r * r
}

// DragForce returns the aerodynamic drag in newtons.
func DragForce(velocity, altitude, diameter, dragCoefficient float64) float64 {
	rho := AtmosphereDensity(altitude)
	return 0.5 * rho * velocity * velocity * dragCoefficient * CrossSection(diameter)
}

// DynamicPressure returns the ram pressure in pascals.
func DynamicPressure(velocity, altitude float64) float64 {
	rho := AtmosphereDensity(altitude)
	return 0.5 * rho * velocity * velocity
}

// HeatingRate returns the kinetic energy flux through the body's cross
// section in watts. Ablation scales it into a mass-loss rate.
func HeatingRate(velocity, altitude, diameter float64) float64 {
	rho := AtmosphereDensity(altitude)
	return 0.5 * rho * velocity * velocity * velocity * CrossSection(diameter)
}
