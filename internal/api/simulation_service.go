package api

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/signalsfoundry/impact-simulator/core"
	"github.com/signalsfoundry/impact-simulator/internal/logging"
	"github.com/signalsfoundry/impact-simulator/internal/observability"
	"github.com/signalsfoundry/impact-simulator/kb"
	"github.com/signalsfoundry/impact-simulator/model"
	"github.com/signalsfoundry/impact-simulator/timectrl"
)

// SampleInterval is the simulated time between trajectory samples.
const SampleInterval = time.Duration(core.TimeStep * core.SampleEvery * float64(time.Second))

// Simulator runs one scenario. *core.SimulationEngine satisfies it.
type Simulator interface {
	Simulate(model.SimulationInput) (model.SimulationResult, error)
}

// ReplayOptions are the server-side defaults for trajectory replays.
type ReplayOptions struct {
	Mode    timectrl.Mode
	Speedup float64
}

// SimulationService implements SimulationServiceServer on top of an engine
// and a presets store.
type SimulationService struct {
	engine  Simulator
	presets *kb.KnowledgeBase

	replay        ReplayOptions
	metrics       *observability.Collector
	replayMetrics *observability.ReplayCollector
	log           logging.Logger
}

var _ SimulationServiceServer = (*SimulationService)(nil)

// ServiceOption configures a SimulationService.
type ServiceOption func(*SimulationService)

func WithMetrics(c *observability.Collector) ServiceOption {
	return func(s *SimulationService) { s.metrics = c }
}

func WithReplayMetrics(c *observability.ReplayCollector) ServiceOption {
	return func(s *SimulationService) { s.replayMetrics = c }
}

func WithReplayOptions(o ReplayOptions) ServiceOption {
	return func(s *SimulationService) { s.replay = o }
}

func WithLogger(l logging.Logger) ServiceOption {
	return func(s *SimulationService) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSimulationService wires the service. A nil engine uses core's default
// engine; a nil presets store starts empty.
func NewSimulationService(engine Simulator, presets *kb.KnowledgeBase, opts ...ServiceOption) *SimulationService {
	if engine == nil {
		engine = core.NewSimulationEngine()
	}
	if presets == nil {
		presets = kb.NewKnowledgeBase()
	}
	s := &SimulationService{
		engine:  engine,
		presets: presets,
		replay:  ReplayOptions{Mode: timectrl.RealTime, Speedup: 1},
		log:     logging.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SimulationService) Simulate(ctx context.Context, req *SimulateRequest) (*model.SimulationResult, error) {
	if req == nil {
		return nil, ToStatusError(validateScenarioRef(nil, ""))
	}
	in, err := s.resolve(req.Input, req.PresetID)
	if err != nil {
		return nil, ToStatusError(err)
	}
	res, err := s.run(ctx, in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return &res, nil
}

func (s *SimulationService) ListPresets(ctx context.Context, _ *emptypb.Empty) (*ListPresetsResponse, error) {
	return &ListPresetsResponse{Presets: s.presets.List()}, nil
}

func (s *SimulationService) GetPreset(ctx context.Context, req *GetPresetRequest) (*model.Preset, error) {
	if req == nil || req.ID == "" {
		return nil, ToStatusError(errorf("id is required"))
	}
	p, err := s.presets.Get(req.ID)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return &p, nil
}

func (s *SimulationService) StreamTrajectory(req *StreamTrajectoryRequest, stream grpc.ServerStreamingServer[ReplayFrame]) error {
	if req == nil {
		return ToStatusError(validateScenarioRef(nil, ""))
	}
	if err := validateSpeedup(req.Speedup); err != nil {
		return ToStatusError(err)
	}
	in, err := s.resolve(req.Input, req.PresetID)
	if err != nil {
		return ToStatusError(err)
	}
	ctx := stream.Context()
	res, err := s.run(ctx, in)
	if err != nil {
		return ToStatusError(err)
	}
	return ToStatusError(s.Replay(ctx, res, req, "grpc", stream.Send))
}

// resolve turns a request's scenario reference into a validated input.
func (s *SimulationService) resolve(input *model.SimulationInput, presetID string) (model.SimulationInput, error) {
	if err := validateScenarioRef(input, presetID); err != nil {
		return model.SimulationInput{}, err
	}
	var in model.SimulationInput
	if input != nil {
		in = *input
	} else {
		p, err := s.presets.Get(presetID)
		if err != nil {
			return model.SimulationInput{}, err
		}
		in = p.Input
	}
	if err := ValidateSimulationInput(in); err != nil {
		return model.SimulationInput{}, err
	}
	return in, nil
}

func (s *SimulationService) run(ctx context.Context, in model.SimulationInput) (model.SimulationResult, error) {
	log := logging.LoggerFromContext(ctx, s.log)
	_, span := StartChildSpan(ctx, "engine.Simulate",
		attribute.String("composition", string(in.Composition)),
		attribute.Float64("diameter_m", in.Diameter),
		attribute.Float64("velocity_kms", in.Velocity),
	)
	defer span.End()

	res, err := s.engine.Simulate(in)
	if err != nil {
		span.RecordError(err)
		return model.SimulationResult{}, err
	}
	span.SetAttributes(
		attribute.String("outcome", string(res.Outcome)),
		attribute.Float64("energy_mt", res.EnergyRelease),
	)
	s.metrics.RecordSimulation(string(res.Outcome), string(in.Composition))

	log.Debug(ctx, "simulation complete",
		logging.String("outcome", string(res.Outcome)),
		logging.String("composition", string(in.Composition)),
		logging.Float64("diameter_m", in.Diameter),
		logging.Float64("energy_mt", res.EnergyRelease),
		logging.Int("samples", len(res.Trajectory)),
	)
	return res, nil
}

// Replay sends one point frame per trajectory sample from req.FromIndex on,
// paced by a TimeController, then a final result frame. A zero speedup and
// accelerated false fall back to the service defaults.
func (s *SimulationService) Replay(ctx context.Context, res model.SimulationResult, req *StreamTrajectoryRequest, transport string, send func(*ReplayFrame) error) error {
	if err := validateFromIndex(req.FromIndex, len(res.Trajectory)); err != nil {
		return err
	}
	mode := s.replay.Mode
	if req.Accelerated {
		mode = timectrl.Accelerated
	}
	speedup := req.Speedup
	if speedup <= 0 {
		speedup = s.replay.Speedup
	}
	tc := timectrl.NewTimeController(SampleInterval, mode, speedup)
	tc.SetElapsed(time.Duration(req.FromIndex) * SampleInterval)

	last := tc.Elapsed()
	tc.AddListener(func(elapsed time.Duration) {
		s.replayMetrics.Advanced(transport, elapsed-last)
		last = elapsed
	})

	done := s.replayMetrics.StreamStarted(transport)
	defer done()

	from := req.FromIndex
	err := tc.Run(ctx, len(res.Trajectory)-from, func(step int, _ time.Duration) error {
		i := from + step
		p := res.Trajectory[i]
		if err := send(&ReplayFrame{Type: FramePoint, Index: i, Point: &p}); err != nil {
			return err
		}
		s.replayMetrics.PointSent(transport)
		return nil
	})
	if err != nil {
		return err
	}
	return send(&ReplayFrame{Type: FrameResult, Index: len(res.Trajectory), Result: &res})
}
