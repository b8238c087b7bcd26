package core

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/impact-simulator/model"
)

// ErrUnknownComposition is returned when an input names a composition that
// is not in the material table.
var ErrUnknownComposition = errors.New("unknown composition")

// RunObserver is notified after every completed entry integration.
type RunObserver func(in model.SimulationInput, run EntryRun)

// SimulationEngine wires the entry integrator, classifier and effects
// calculator into a single call. It holds no per-run state, so one engine
// can serve any number of concurrent Simulate calls.
type SimulationEngine struct {
	runObservers []RunObserver
}

// EngineOption configures a SimulationEngine.
type EngineOption func(*SimulationEngine)

// WithRunObserver registers fn to be called after each integration.
// Observers must be safe for concurrent use.
func WithRunObserver(fn RunObserver) EngineOption {
	return func(se *SimulationEngine) {
		if fn != nil {
			se.runObservers = append(se.runObservers, fn)
		}
	}
}

// NewSimulationEngine constructs an engine.
func NewSimulationEngine(opts ...EngineOption) *SimulationEngine {
	se := &SimulationEngine{}
	for _, opt := range opts {
		opt(se)
	}
	return se
}

// Simulate runs one entry from the atmosphere interface to its outcome and
// derives the resulting effects. Inputs are assumed to be range-checked by
// the caller; the only error is an unresolvable composition.
func (se *SimulationEngine) Simulate(in model.SimulationInput) (model.SimulationResult, error) {
	material, ok := LookupMaterial(in.Composition)
	if !ok {
		return model.SimulationResult{}, fmt.Errorf("%w: %q", ErrUnknownComposition, in.Composition)
	}

	initialMass := InitialMass(in.Diameter, material.Density)
	run := Integrate(
		in.Diameter,
		initialMass,
		KmPerSecond(in.Velocity),
		in.ApproachAngle,
		material,
		in.ImpactLocation,
	)
	for _, fn := range se.runObservers {
		fn(in, run)
	}

	outcome := Classify(run.FinalMass, run.InitialMass, run.Phase, in.ImpactLocation.IsOcean)
	if run.Steps == 0 {
		// Nothing left the entry interface (zero velocity), so nothing
		// reached the surface.
		outcome = model.OutcomeBurnup
	}

	// Ablation has no floor inside the integrator, and the last Euler step
	// may overshoot zero velocity; neither carries energy. A zero-diameter
	// body divides by zero mass and ends with NaN state.
	survivedMass := nonNegative(run.FinalMass)
	impactVelocity := nonNegative(run.FinalVelocity)
	impactEnergy := KineticEnergy(survivedMass, impactVelocity)
	megatons := JoulesToMegatons(impactEnergy)

	res := model.SimulationResult{
		Outcome:        outcome,
		EnergyRelease:  megatons,
		ImpactEnergy:   impactEnergy,
		ImpactVelocity: impactVelocity,
		ImpactEffects: ComputeEffects(EffectsInput{
			Outcome:         outcome,
			ImpactEnergy:    impactEnergy,
			EnergyMegatons:  megatons,
			FinalMass:       survivedMass,
			MaterialDensity: material.Density,
			IsOcean:         in.ImpactLocation.IsOcean,
		}),
		Trajectory:          run.Trajectory,
		SurvivedMass:        survivedMass,
		PeakDynamicPressure: run.PeakDynamicPressure,
		ImpactSite:          NewImpactSite(in.ImpactLocation),
	}
	if res.Trajectory == nil {
		res.Trajectory = []model.TrajectoryPoint{}
	}
	if alt, ok := run.FragmentationAltitude(); ok {
		res.FragmentationAltitude = &alt
	}
	if alt, ok := run.AirburstAltitude(); ok {
		res.AirburstAltitude = &alt
	}
	res.Explanation = Explain(in, res)

	return res, nil
}

// nonNegative maps negative values and NaN to 0.
func nonNegative(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}

var defaultEngine = NewSimulationEngine()

// Simulate runs in through an engine with no observers.
func Simulate(in model.SimulationInput) (model.SimulationResult, error) {
	return defaultEngine.Simulate(in)
}
