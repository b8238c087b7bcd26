package model

// Outcome classifies how an entry ended.
type Outcome string

const (
	OutcomeBurnup      Outcome = "burnup"
	OutcomeAirburst    Outcome = "airburst"
	OutcomeLandImpact  Outcome = "land_impact"
	OutcomeOceanImpact Outcome = "ocean_impact"
)

// Location is the nominal impact point. IsOcean gates ocean effects.
type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	IsOcean bool    `json:"isOcean"`
}

// SimulationInput is the caller-supplied description of one entry.
type SimulationInput struct {
	Diameter       float64     `json:"diameter"` // m
	Composition    Composition `json:"composition"`
	Velocity       float64     `json:"velocity"`      // km/s at the entry interface
	ApproachAngle  float64     `json:"approachAngle"` // degrees from horizontal
	ImpactLocation Location    `json:"impactLocation"`
}

// TrajectoryPoint is one sampled entry state.
type TrajectoryPoint struct {
	Time     float64 `json:"time"`     // s since entry
	Altitude float64 `json:"altitude"` // m
	Velocity float64 `json:"velocity"` // m/s
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Mass     float64 `json:"mass"` // kg
}

// BlastRadius holds overpressure ring radii in metres.
type BlastRadius struct {
	Severe   float64 `json:"severe"`   // 20 psi
	Moderate float64 `json:"moderate"` // 5 psi
	Light    float64 `json:"light"`    // 1 psi
}

// ImpactEffects groups the derived surface effects. Fields that do not apply
// to an outcome are nil.
type ImpactEffects struct {
	CraterDiameter   *float64     `json:"craterDiameter,omitempty"`
	BlastRadius      *BlastRadius `json:"blastRadius,omitempty"`
	ThermalRadius    *float64     `json:"thermalRadius,omitempty"`
	SeismicMagnitude *float64     `json:"seismicMagnitude,omitempty"`
	TsunamiHeight    *float64     `json:"tsunamiHeight,omitempty"`
	TsunamiRadius    *float64     `json:"tsunamiRadius,omitempty"`

	// EquivalentDiameter is the diameter of the surviving mass as a single
	// sphere (ocean impacts only).
	EquivalentDiameter *float64 `json:"equivalentDiameter,omitempty"`
}

// ImpactSite places the nominal impact point in Earth-fixed coordinates.
type ImpactSite struct {
	Location
	ECEF      Position `json:"ecef"`      // surface point
	EntryECEF Position `json:"entryEcef"` // entry interface directly above the site
}

// SimulationResult is the complete output of one simulation run.
type SimulationResult struct {
	Outcome               Outcome           `json:"outcome"`
	EnergyRelease         float64           `json:"energyRelease"`  // Mt TNT
	ImpactEnergy          float64           `json:"impactEnergy"`   // J
	ImpactVelocity        float64           `json:"impactVelocity"` // m/s
	ImpactEffects         ImpactEffects     `json:"impactEffects"`
	Trajectory            []TrajectoryPoint `json:"trajectory"`
	FragmentationAltitude *float64          `json:"fragmentationAltitude,omitempty"`
	AirburstAltitude      *float64          `json:"airburstAltitude,omitempty"`
	SurvivedMass          float64           `json:"survivedMass"` // kg
	PeakDynamicPressure   float64           `json:"peakDynamicPressure"`
	ImpactSite            ImpactSite        `json:"impactSite"`
	Explanation           []string          `json:"explanation"`
}
