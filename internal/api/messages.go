package api

import "github.com/signalsfoundry/impact-simulator/model"

// SimulateRequest names a scenario either inline or by preset id. Exactly one
// of Input and PresetID must be set.
type SimulateRequest struct {
	Input    *model.SimulationInput `json:"input,omitempty"`
	PresetID string                 `json:"presetId,omitempty"`
}

type ListPresetsResponse struct {
	Presets []model.Preset `json:"presets"`
}

type GetPresetRequest struct {
	ID string `json:"id"`
}

// StreamTrajectoryRequest asks for a paced replay of one run. Speedup <= 0
// uses the server default; Accelerated skips pacing entirely. FromIndex
// resumes a replay at that trajectory sample.
type StreamTrajectoryRequest struct {
	Input       *model.SimulationInput `json:"input,omitempty"`
	PresetID    string                 `json:"presetId,omitempty"`
	Speedup     float64                `json:"speedup,omitempty"`
	Accelerated bool                   `json:"accelerated,omitempty"`
	FromIndex   int                    `json:"fromIndex,omitempty"`
}

// FrameType discriminates replay frames.
type FrameType string

const (
	FramePoint  FrameType = "point"
	FrameResult FrameType = "result"
)

// ReplayFrame is one message of a trajectory replay: a point frame per
// trajectory sample, then a single result frame.
type ReplayFrame struct {
	Type   FrameType               `json:"type"`
	Index  int                     `json:"index"`
	Point  *model.TrajectoryPoint  `json:"point,omitempty"`
	Result *model.SimulationResult `json:"result,omitempty"`
}
