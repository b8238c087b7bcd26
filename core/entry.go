package core

import (
	"math"

	"github.com/signalsfoundry/impact-simulator/model"
)

const (
	// EntryInterfaceAltitude is where every run starts (metres).
	EntryInterfaceAltitude = 120000.0
	// TimeStep is the fixed Euler step (seconds).
	TimeStep = 0.1
	// MaxEntryTime caps simulated time; the loop simply stops past it.
	MaxEntryTime = 300.0
	// SampleEvery is the number of steps between trajectory samples.
	SampleEvery = 10
	// FragmentationSpread multiplies the effective diameter at breakup to
	// model the debris cloud's larger cross section.
	FragmentationSpread = 1.5
	// AirburstMassFraction is the remaining-mass fraction below which a
	// fragmented body bursts.
	AirburstMassFraction = 0.1

	ablationScale = 1e-9
	degToRad      = math.Pi / 180
)

// EntryRun is what the integrator hands to the classifier and the facade.
type EntryRun struct {
	Trajectory          []model.TrajectoryPoint
	InitialMass         float64
	FinalMass           float64 // may be negative: ablation has no floor
	FinalVelocity       float64
	FinalAltitude       float64
	FinalDiameter       float64 // effective, after any fragmentation spread
	Duration            float64
	Steps               int
	PeakDynamicPressure float64
	Phase               EntryPhase
}

// FragmentationAltitude returns the breakup altitude, if any.
func (r EntryRun) FragmentationAltitude() (float64, bool) {
	return r.Phase.FragmentationAltitude()
}

// AirburstAltitude returns the airburst altitude, if any.
func (r EntryRun) AirburstAltitude() (float64, bool) {
	return r.Phase.AirburstAltitude()
}

// Integrate advances a body from the entry interface with explicit Euler
// steps until it reaches the ground, stops, bursts, or MaxEntryTime passes.
// diameter is in metres, mass0 in kg, v0 in m/s and angleDeg in degrees from
// horizontal. It never fails: degenerate inputs end on the first loop check.
func Integrate(diameter, mass0, v0, angleDeg float64, material model.MaterialProperties, loc model.Location) EntryRun {
	s := EntryState{
		Altitude: EntryInterfaceAltitude,
		Velocity: v0,
		Mass:     mass0,
		Diameter: diameter,
	}
	sinAngle := math.Sin(angleDeg * degToRad)
	run := EntryRun{InitialMass: mass0}

	for s.Altitude > 0 && s.Velocity > 0 && s.Time <= MaxEntryTime {
		drag := DragForce(s.Velocity, s.Altitude, s.Diameter, material.DragCoefficient)
		q := DynamicPressure(s.Velocity, s.Altitude)
		if q > run.PeakDynamicPressure {
			run.PeakDynamicPressure = q
		}

		if q > material.Strength {
			if next, ok := s.Phase.Fragment(s.Altitude); ok {
				s.Phase = next
				s.Diameter *= FragmentationSpread
			}
		}

		s.Velocity -= drag / s.Mass * TimeStep

		heat := HeatingRate(math.Max(s.Velocity, 0), s.Altitude, s.Diameter)
		s.Mass -= heat * material.AblationCoefficient * ablationScale * TimeStep

		s.Altitude -= s.Velocity * sinAngle * TimeStep
		s.Time += TimeStep
		run.Steps++

		if s.Mass < AirburstMassFraction*mass0 {
			if next, ok := s.Phase.Burst(s.Altitude); ok {
				s.Phase = next
				break
			}
		}

		if run.Steps%SampleEvery == 0 {
			run.Trajectory = append(run.Trajectory, model.TrajectoryPoint{
				Time:     s.Time,
				Altitude: s.Altitude,
				Velocity: s.Velocity,
				Lat:      loc.Lat,
				Lon:      loc.Lon,
				Mass:     s.Mass,
			})
		}
	}

	run.FinalMass = s.Mass
	run.FinalVelocity = s.Velocity
	run.FinalAltitude = s.Altitude
	run.FinalDiameter = s.Diameter
	run.Duration = s.Time
	run.Phase = s.Phase
	return run
}
