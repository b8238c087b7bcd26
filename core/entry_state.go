package core

// PhaseKind enumerates the structural states of a body during entry.
// Transitions only move forward: Descending → Fragmented → FragmentedAirburst.
type PhaseKind int

const (
	Descending PhaseKind = iota
	Fragmented
	FragmentedAirburst
)

func (k PhaseKind) String() string {
	switch k {
	case Descending:
		return "descending"
	case Fragmented:
		return "fragmented"
	case FragmentedAirburst:
		return "fragmented_airburst"
	}
	return "unknown"
}

// EntryPhase is a tagged value carrying the phase kind together with the
// altitudes at which each one-way transition happened. The zero value is
// Descending.
type EntryPhase struct {
	kind                  PhaseKind
	fragmentationAltitude float64
	airburstAltitude      float64
}

// Kind returns the current phase.
func (p EntryPhase) Kind() PhaseKind { return p.kind }

// Fragment returns the Fragmented phase entered at altitude. It reports false
// and returns p unchanged unless p is Descending.
func (p EntryPhase) Fragment(altitude float64) (EntryPhase, bool) {
	if p.kind != Descending {
		return p, false
	}
	return EntryPhase{kind: Fragmented, fragmentationAltitude: altitude}, true
}

// Burst returns the FragmentedAirburst phase entered at altitude. Only a
// Fragmented body can burst.
func (p EntryPhase) Burst(altitude float64) (EntryPhase, bool) {
	if p.kind != Fragmented {
		return p, false
	}
	p.kind = FragmentedAirburst
	p.airburstAltitude = altitude
	return p, true
}

// FragmentationAltitude returns where the body broke up, if it did.
func (p EntryPhase) FragmentationAltitude() (float64, bool) {
	return p.fragmentationAltitude, p.kind != Descending
}

// AirburstAltitude returns where the debris cloud burst, if it did.
func (p EntryPhase) AirburstAltitude() (float64, bool) {
	return p.airburstAltitude, p.kind == FragmentedAirburst
}

// EntryState is the mutable integrator state for a single run.
type EntryState struct {
	Altitude float64 // m
	Velocity float64 // m/s
	Mass     float64 // kg
	Diameter float64 // m, effective; grows on fragmentation
	Time     float64 // s since entry
	Phase    EntryPhase
}
