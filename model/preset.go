package model

// Preset is a named, ready-to-run scenario.
type Preset struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Input       SimulationInput `json:"input"`
}
