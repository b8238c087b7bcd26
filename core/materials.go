package core

import "github.com/signalsfoundry/impact-simulator/model"

// materialTable is built once and never written afterwards, so concurrent
// lookups need no locking.
var materialTable = map[model.Composition]model.MaterialProperties{
	model.CompositionRocky: {
		Density:             3000,
		Strength:            2.5e7,
		DragCoefficient:     0.47,
		AblationCoefficient: 34,
	},
	model.CompositionMetallic: {
		Density:             7800,
		Strength:            1e8,
		DragCoefficient:     0.47,
		AblationCoefficient: 10,
	},
	model.CompositionCarbonaceous: {
		Density:             2000,
		Strength:            5e6,
		DragCoefficient:     0.47,
		AblationCoefficient: 40,
	},
}

// LookupMaterial returns the bulk properties for a composition.
func LookupMaterial(c model.Composition) (model.MaterialProperties, bool) {
	props, ok := materialTable[c]
	return props, ok
}

// Materials returns a copy of the full material table.
func Materials() map[model.Composition]model.MaterialProperties {
	out := make(map[model.Composition]model.MaterialProperties, len(materialTable))
	for c, props := range materialTable {
		out[c] = props
	}
	return out
}
