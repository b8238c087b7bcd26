package model

// Composition names the bulk material of an impactor.
type Composition string

const (
	CompositionRocky        Composition = "rocky"
	CompositionMetallic     Composition = "metallic"
	CompositionCarbonaceous Composition = "carbonaceous"
)

// Compositions lists every composition the material table knows about.
var Compositions = []Composition{
	CompositionRocky,
	CompositionMetallic,
	CompositionCarbonaceous,
}

// Valid reports whether c is one of the known compositions.
func (c Composition) Valid() bool {
	switch c {
	case CompositionRocky, CompositionMetallic, CompositionCarbonaceous:
		return true
	}
	return false
}

// MaterialProperties holds the bulk properties used by the entry model.
type MaterialProperties struct {
	Density             float64 `json:"density"`             // kg/m³
	Strength            float64 `json:"strength"`            // Pa, dynamic-pressure failure threshold
	DragCoefficient     float64 `json:"dragCoefficient"`     // dimensionless
	AblationCoefficient float64 `json:"ablationCoefficient"` // mass loss per unit heat, scaled by 1e-9
}
