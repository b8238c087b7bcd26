package core

import "github.com/signalsfoundry/impact-simulator/model"

// BurnupMassRatio is the surviving-mass fraction below which a body counts
// as burned up.
const BurnupMassRatio = 0.01

// Classify derives the outcome of an entry. The first matching rule wins:
//
//  1. finalMass/initialMass < BurnupMassRatio → burnup
//  2. the phase recorded an airburst          → airburst
//  3. isOcean                                 → ocean_impact
//  4. otherwise                               → land_impact
//
// Rule 1 precedes rule 2, so a body that burst after losing more than 99%
// of its mass is reported as burnup. A ratio that is not a number (zero
// initial mass) also counts as burnup.
func Classify(finalMass, initialMass float64, phase EntryPhase, isOcean bool) model.Outcome {
	ratio := finalMass / initialMass
	if !(ratio >= BurnupMassRatio) {
		return model.OutcomeBurnup
	}
	if _, ok := phase.AirburstAltitude(); ok {
		return model.OutcomeAirburst
	}
	if isOcean {
		return model.OutcomeOceanImpact
	}
	return model.OutcomeLandImpact
}
