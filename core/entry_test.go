package core

import (
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/signalsfoundry/impact-simulator/model"
)

func rocky(t *testing.T) model.MaterialProperties {
	t.Helper()
	props, ok := LookupMaterial(model.CompositionRocky)
	if !ok {
		t.Fatalf("rocky material missing")
	}
	return props
}

func TestEntryPhase_OneWayTransitions(t *testing.T) {
	var p EntryPhase
	if p.Kind() != Descending {
		t.Fatalf("zero phase = %v, want descending", p.Kind())
	}
	if _, ok := p.Burst(1000); ok {
		t.Fatalf("a descending body must not burst")
	}

	p, ok := p.Fragment(30000)
	if !ok || p.Kind() != Fragmented {
		t.Fatalf("Fragment from descending: ok=%v kind=%v", ok, p.Kind())
	}
	if _, ok := p.Fragment(20000); ok {
		t.Fatalf("fragmentation must be one-shot")
	}

	p, ok = p.Burst(15000)
	if !ok || p.Kind() != FragmentedAirburst {
		t.Fatalf("Burst from fragmented: ok=%v kind=%v", ok, p.Kind())
	}
	if _, ok := p.Burst(10000); ok {
		t.Fatalf("airburst must be one-shot")
	}
	if _, ok := p.Fragment(10000); ok {
		t.Fatalf("phase must not move backwards")
	}

	if alt, ok := p.FragmentationAltitude(); !ok || alt != 30000 {
		t.Fatalf("FragmentationAltitude = %v, %v", alt, ok)
	}
	if alt, ok := p.AirburstAltitude(); !ok || alt != 15000 {
		t.Fatalf("AirburstAltitude = %v, %v", alt, ok)
	}
}

func TestIntegrate_ZeroVelocityTerminatesImmediately(t *testing.T) {
	mat := rocky(t)
	m0 := InitialMass(10, mat.Density)
	run := Integrate(10, m0, 0, 45, mat, model.Location{})

	if run.Steps != 0 || len(run.Trajectory) != 0 {
		t.Fatalf("expected no steps, got steps=%d points=%d", run.Steps, len(run.Trajectory))
	}
	if run.FinalMass != m0 || run.FinalAltitude != EntryInterfaceAltitude {
		t.Fatalf("state changed without a step: %+v", run)
	}
}

func TestIntegrate_SamplesOncePerSimulatedSecond(t *testing.T) {
	mat := rocky(t)
	loc := model.Location{Lat: 54.8, Lon: 61.1}
	run := Integrate(100, InitialMass(100, mat.Density), 20000, 60, mat, loc)

	if len(run.Trajectory) == 0 {
		t.Fatalf("expected trajectory samples")
	}
	if want := run.Steps / SampleEvery; len(run.Trajectory) != want {
		t.Fatalf("got %d samples for %d steps, want %d", len(run.Trajectory), run.Steps, want)
	}
	for i, pt := range run.Trajectory {
		if !scalar.EqualWithinAbs(pt.Time, float64(i+1), 1e-6) {
			t.Fatalf("sample %d at t=%v, want %v", i, pt.Time, i+1)
		}
		if pt.Lat != loc.Lat || pt.Lon != loc.Lon {
			t.Fatalf("sample %d moved the location: %+v", i, pt)
		}
	}
}

func TestIntegrate_MassNonIncreasingAndAltitudeFalling(t *testing.T) {
	mat := rocky(t)
	run := Integrate(20, InitialMass(20, mat.Density), 19000, 18, mat, model.Location{})

	prevMass := run.InitialMass
	prevAlt := EntryInterfaceAltitude
	for i, pt := range run.Trajectory {
		if pt.Mass > prevMass {
			t.Fatalf("sample %d mass grew: %v > %v", i, pt.Mass, prevMass)
		}
		if pt.Altitude >= prevAlt {
			t.Fatalf("sample %d altitude did not fall: %v >= %v", i, pt.Altitude, prevAlt)
		}
		prevMass, prevAlt = pt.Mass, pt.Altitude
	}
	if run.FinalMass > prevMass {
		t.Fatalf("final mass %v above last sample %v", run.FinalMass, prevMass)
	}
}

func TestIntegrate_FragmentationRecordsPeakAboveStrength(t *testing.T) {
	mat := rocky(t)
	run := Integrate(100, InitialMass(100, mat.Density), 20000, 60, mat, model.Location{})

	alt, ok := run.FragmentationAltitude()
	if !ok {
		t.Fatalf("expected a 20 km/s body to fragment")
	}
	if alt <= 0 || alt >= EntryInterfaceAltitude {
		t.Fatalf("fragmentation altitude %v out of range", alt)
	}
	if run.PeakDynamicPressure <= mat.Strength {
		t.Fatalf("peak dynamic pressure %v should exceed strength %v", run.PeakDynamicPressure, mat.Strength)
	}
}

func TestIntegrate_FragmentationSpreadsEffectiveDiameter(t *testing.T) {
	mat := rocky(t)

	broken := Integrate(100, InitialMass(100, mat.Density), 20000, 60, mat, model.Location{})
	if _, ok := broken.FragmentationAltitude(); !ok {
		t.Fatalf("expected a 20 km/s body to fragment")
	}
	if broken.FinalDiameter != 150 {
		t.Fatalf("fragmented diameter = %v, want 150 (1.5x)", broken.FinalDiameter)
	}

	// Metallic strength is never reached at 12.8 km/s.
	metal, _ := LookupMaterial(model.CompositionMetallic)
	intact := Integrate(50, InitialMass(50, metal.Density), 12800, 45, metal, model.Location{})
	if _, ok := intact.FragmentationAltitude(); ok {
		t.Fatalf("slow metallic body should stay intact")
	}
	if intact.FinalDiameter != 50 {
		t.Fatalf("intact diameter = %v, want 50", intact.FinalDiameter)
	}
}

func TestIntegrate_AirburstStopsTheRun(t *testing.T) {
	mat := rocky(t)
	run := Integrate(20, InitialMass(20, mat.Density), 19000, 18, mat, model.Location{})

	burst, ok := run.AirburstAltitude()
	if !ok {
		t.Fatalf("expected an airburst")
	}
	if run.Phase.Kind() != FragmentedAirburst {
		t.Fatalf("phase = %v", run.Phase.Kind())
	}
	if run.FinalAltitude != burst {
		t.Fatalf("run continued past the airburst: final altitude %v, burst %v", run.FinalAltitude, burst)
	}
	if run.FinalMass >= AirburstMassFraction*run.InitialMass {
		t.Fatalf("burst with %v of %v kg left", run.FinalMass, run.InitialMass)
	}
}

func TestIntegrate_GrazingEntryHitsTimeCap(t *testing.T) {
	mat := rocky(t)
	// A horizontal path never loses altitude, so only the time cap ends it.
	run := Integrate(1, InitialMass(1, mat.Density), 11000, 0, mat, model.Location{})

	if run.FinalAltitude != EntryInterfaceAltitude {
		t.Fatalf("altitude changed on a horizontal path: %v", run.FinalAltitude)
	}
	if run.Duration <= MaxEntryTime || run.Duration > MaxEntryTime+2*TimeStep {
		t.Fatalf("duration %v, want just past %v", run.Duration, MaxEntryTime)
	}
	if len(run.Trajectory) != run.Steps/SampleEvery {
		t.Fatalf("got %d samples for %d steps", len(run.Trajectory), run.Steps)
	}
}
