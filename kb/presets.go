package kb

import "github.com/signalsfoundry/impact-simulator/model"

// DefaultPresets returns the built-in scenarios. Each call returns a fresh slice.
func DefaultPresets() []model.Preset {
	return []model.Preset{
		{
			ID:          "chelyabinsk",
			Name:        "Chelyabinsk (2013)",
			Description: "A 20 m stony asteroid on a shallow path over the southern Urals.",
			Input: model.SimulationInput{
				Diameter:       20,
				Composition:    model.CompositionRocky,
				Velocity:       19,
				ApproachAngle:  18,
				ImpactLocation: model.Location{Lat: 54.8, Lon: 61.1},
			},
		},
		{
			ID:          "tunguska",
			Name:        "Tunguska (1908)",
			Description: "A fragile body that exploded over the Siberian taiga.",
			Input: model.SimulationInput{
				Diameter:       60,
				Composition:    model.CompositionCarbonaceous,
				Velocity:       27,
				ApproachAngle:  30,
				ImpactLocation: model.Location{Lat: 60.9, Lon: 101.9},
			},
		},
		{
			ID:          "meteor-crater",
			Name:        "Meteor Crater (50,000 years ago)",
			Description: "An iron impactor that reached the Arizona desert floor.",
			Input: model.SimulationInput{
				Diameter:       50,
				Composition:    model.CompositionMetallic,
				Velocity:       12.8,
				ApproachAngle:  45,
				ImpactLocation: model.Location{Lat: 35.03, Lon: -111.02},
			},
		},
		{
			ID:          "chicxulub",
			Name:        "Chicxulub (66 million years ago)",
			Description: "The 10 km impactor linked to the end-Cretaceous extinction.",
			Input: model.SimulationInput{
				Diameter:       10000,
				Composition:    model.CompositionRocky,
				Velocity:       20,
				ApproachAngle:  60,
				ImpactLocation: model.Location{Lat: 21.4, Lon: -89.5},
			},
		},
		{
			ID:          "eltanin",
			Name:        "Eltanin (2.5 million years ago)",
			Description: "A kilometre-scale body that struck the deep Southern Ocean.",
			Input: model.SimulationInput{
				Diameter:       1500,
				Composition:    model.CompositionRocky,
				Velocity:       20,
				ApproachAngle:  45,
				ImpactLocation: model.Location{Lat: -57.8, Lon: -90.8, IsOcean: true},
			},
		},
		{
			ID:          "small-meteor",
			Name:        "Bright fireball",
			Description: "A car-sized rock that burns up high in the atmosphere.",
			Input: model.SimulationInput{
				Diameter:       5,
				Composition:    model.CompositionRocky,
				Velocity:       17,
				ApproachAngle:  45,
				ImpactLocation: model.Location{Lat: 40.0, Lon: -100.0},
			},
		},
	}
}
