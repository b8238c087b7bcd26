package model

// Position is an Earth-centred, Earth-fixed point in metres.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}
