package core

import (
	"math"

	"github.com/signalsfoundry/impact-simulator/model"
)

// Overpressure thresholds for the blast rings (psi).
const (
	SevereOverpressurePSI   = 20.0
	ModerateOverpressurePSI = 5.0
	LightOverpressurePSI    = 1.0
)

const (
	// FireballRadiusPerMt is the fireball radius for a 1 Mt release (m),
	// scaled by the cube root of yield.
	FireballRadiusPerMt = 440.0
	// ThermalFireballMultiple sets the thermal radius relative to the fireball.
	ThermalFireballMultiple = 3.0

	// TargetDensity is the bulk density of the ground (kg/m³).
	TargetDensity = 2500.0
	// WaterDepth is the assumed ocean depth at the impact site (m).
	WaterDepth = 4000.0

	referenceWaterDepth   = 4000.0
	tsunamiEnergyScale    = 1e15
	tsunamiRadiusPerMetre = 1000.0 * 100.0
)

// EffectsInput is everything the effects calculator needs from a run.
type EffectsInput struct {
	Outcome         model.Outcome
	ImpactEnergy    float64 // J
	EnergyMegatons  float64
	FinalMass       float64 // kg
	MaterialDensity float64 // kg/m³
	IsOcean         bool
}

// BlastRadiusAt returns the radius (m) at which the given overpressure (psi)
// is reached for a release of energyMegatons.
func BlastRadiusAt(energyMegatons, overpressurePSI float64) float64 {
	return 1000 * math.Cbrt(energyMegatons) / math.Sqrt(overpressurePSI)
}

// BlastRadii evaluates BlastRadiusAt at the severe, moderate and light thresholds.
func BlastRadii(energyMegatons float64) model.BlastRadius {
	return model.BlastRadius{
		Severe:   BlastRadiusAt(energyMegatons, SevereOverpressurePSI),
		Moderate: BlastRadiusAt(energyMegatons, ModerateOverpressurePSI),
		Light:    BlastRadiusAt(energyMegatons, LightOverpressurePSI),
	}
}

// ThermalRadius returns the radius (m) of significant thermal exposure.
func ThermalRadius(energyMegatons float64) float64 {
	return ThermalFireballMultiple * FireballRadiusPerMt * math.Cbrt(energyMegatons)
}

// CraterDiameter applies the simplified crater scaling law. energy is in
// joules, projectileDensity in kg/m³; the result is in metres.
func CraterDiameter(energy, projectileDensity float64) float64 {
	return 1.8 * math.Pow(energy/projectileDensity, 0.22) * math.Pow(TargetDensity, -0.33)
}

// SeismicMagnitude converts impact energy (J) into a Richter-like magnitude.
func SeismicMagnitude(energy float64) float64 {
	return (math.Log10(energy) - 4.8) / 1.5
}

// EquivalentDiameter returns the diameter of a sphere with the given mass
// and density.
func EquivalentDiameter(mass, density float64) float64 {
	return math.Cbrt(6 * mass / (math.Pi * density))
}

// TsunamiHeight returns the initial wave height (m) for an ocean impact.
func TsunamiHeight(energy float64) float64 {
	return math.Pow(energy/tsunamiEnergyScale, 0.25) * math.Sqrt(referenceWaterDepth/WaterDepth)
}

// TsunamiRadius returns the distance (m) over which a wave of the given
// initial height remains significant.
func TsunamiRadius(height float64) float64 {
	return height * tsunamiRadiusPerMetre
}

// ComputeEffects derives surface effects for an outcome. Burnup produces no
// effects at all; every other outcome gets blast and thermal radii, and land
// or ocean impacts add their own fields. Crater and seismic magnitude are
// left unset unless the impact energy is positive, since both scale with its
// logarithm or a fractional power.
func ComputeEffects(in EffectsInput) model.ImpactEffects {
	var fx model.ImpactEffects
	if in.Outcome == model.OutcomeBurnup {
		return fx
	}

	blast := BlastRadii(in.EnergyMegatons)
	fx.BlastRadius = &blast
	fx.ThermalRadius = ptr(ThermalRadius(in.EnergyMegatons))

	switch in.Outcome {
	case model.OutcomeLandImpact:
		if in.ImpactEnergy > 0 {
			fx.CraterDiameter = ptr(CraterDiameter(in.ImpactEnergy, in.MaterialDensity))
			fx.SeismicMagnitude = ptr(SeismicMagnitude(in.ImpactEnergy))
		}
	case model.OutcomeOceanImpact:
		fx.EquivalentDiameter = ptr(EquivalentDiameter(in.FinalMass, in.MaterialDensity))
		height := TsunamiHeight(in.ImpactEnergy)
		fx.TsunamiHeight = ptr(height)
		fx.TsunamiRadius = ptr(TsunamiRadius(height))
		if in.ImpactEnergy > 0 {
			fx.SeismicMagnitude = ptr(SeismicMagnitude(in.ImpactEnergy))
		}
	}
	return fx
}

func ptr(v float64) *float64 { return &v }
