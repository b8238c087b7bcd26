package api

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/signalsfoundry/impact-simulator/model"
)

// ErrInvalidInput marks requests rejected before reaching the engine.
var ErrInvalidInput = errors.New("invalid input")

// Accepted input ranges. The engine assumes callers stay inside them.
const (
	MinDiameter      = 1.0      // m
	MaxDiameter      = 100000.0 // m
	MinVelocity      = 11.0     // km/s
	MaxVelocity      = 72.0     // km/s
	MinApproachAngle = 0.0      // degrees
	MaxApproachAngle = 90.0     // degrees
	MaxSpeedup       = 1000.0
)

// ValidateSimulationInput checks every field of in against the accepted ranges.
func ValidateSimulationInput(in model.SimulationInput) error {
	if err := checkRange("diameter", in.Diameter, MinDiameter, MaxDiameter); err != nil {
		return err
	}
	if err := checkRange("velocity", in.Velocity, MinVelocity, MaxVelocity); err != nil {
		return err
	}
	if err := checkRange("approachAngle", in.ApproachAngle, MinApproachAngle, MaxApproachAngle); err != nil {
		return err
	}
	if !in.Composition.Valid() {
		names := make([]string, 0, len(model.Compositions))
		for _, c := range model.Compositions {
			names = append(names, string(c))
		}
		return fmt.Errorf("%w: composition %q must be one of %s", ErrInvalidInput, in.Composition, strings.Join(names, ", "))
	}
	if err := checkRange("impactLocation.lat", in.ImpactLocation.Lat, -90, 90); err != nil {
		return err
	}
	if err := checkRange("impactLocation.lon", in.ImpactLocation.Lon, -180, 180); err != nil {
		return err
	}
	return nil
}

func checkRange(field string, v, lo, hi float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite", ErrInvalidInput, field)
	}
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s %g outside [%g, %g]", ErrInvalidInput, field, v, lo, hi)
	}
	return nil
}

// validateScenarioRef enforces that exactly one of an inline input or a
// preset id is supplied.
func validateScenarioRef(input *model.SimulationInput, presetID string) error {
	hasPreset := strings.TrimSpace(presetID) != ""
	switch {
	case input == nil && !hasPreset:
		return fmt.Errorf("%w: one of input or presetId is required", ErrInvalidInput)
	case input != nil && hasPreset:
		return fmt.Errorf("%w: input and presetId are mutually exclusive", ErrInvalidInput)
	}
	return nil
}

func validateSpeedup(speedup float64) error {
	if math.IsNaN(speedup) || speedup < 0 || speedup > MaxSpeedup {
		return fmt.Errorf("%w: speedup %g outside [0, %g]", ErrInvalidInput, speedup, MaxSpeedup)
	}
	return nil
}

func validateFromIndex(from, samples int) error {
	if from < 0 || from > samples {
		return fmt.Errorf("%w: fromIndex %d outside [0, %d]", ErrInvalidInput, from, samples)
	}
	return nil
}

func errorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}
