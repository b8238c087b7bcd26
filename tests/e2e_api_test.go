package tests

import (
	"context"
	"errors"
	"io"
	"net"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/impact-simulator/core"
	"github.com/signalsfoundry/impact-simulator/internal/api"
	"github.com/signalsfoundry/impact-simulator/internal/logging"
	"github.com/signalsfoundry/impact-simulator/internal/observability"
	"github.com/signalsfoundry/impact-simulator/kb"
	"github.com/signalsfoundry/impact-simulator/model"
	"github.com/signalsfoundry/impact-simulator/timectrl"
)

type apiTestEnv struct {
	ctx       context.Context
	collector *observability.Collector
	client    *api.SimulationServiceClient
}

func newAPITestEnv(t *testing.T) *apiTestEnv {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	t.Cleanup(cancel)

	collector, err := observability.NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	presets, err := kb.NewWithDefaults(kb.WithValidator(api.ValidateSimulationInput))
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	svc := api.NewSimulationService(core.NewSimulationEngine(), presets,
		api.WithMetrics(collector),
		api.WithReplayOptions(api.ReplayOptions{Mode: timectrl.Accelerated, Speedup: 1}),
	)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			api.RequestIDUnaryServerInterceptor(logging.Noop()),
			collector.UnaryServerInterceptor(),
			api.TracingUnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			api.RequestIDStreamServerInterceptor(logging.Noop()),
			collector.StreamServerInterceptor(),
			api.TracingStreamServerInterceptor(),
		),
	)
	api.RegisterSimulationServiceServer(grpcServer, svc)
	go func() { _ = grpcServer.Serve(lis) }()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &apiTestEnv{
		ctx:       ctx,
		collector: collector,
		client:    api.NewSimulationServiceClient(conn),
	}
}

func TestE2EScenarios(t *testing.T) {
	env := newAPITestEnv(t)

	tests := []struct {
		name  string
		input model.SimulationInput
		want  model.Outcome
		check func(t *testing.T, res *model.SimulationResult)
	}{
		{
			name:  "small rocky body burns up",
			input: model.SimulationInput{Diameter: 5, Composition: model.CompositionRocky, Velocity: 17, ApproachAngle: 45},
			want:  model.OutcomeBurnup,
			check: func(t *testing.T, res *model.SimulationResult) {
				if len(res.Trajectory) == 0 {
					t.Fatalf("burnup with empty trajectory")
				}
			},
		},
		{
			name:  "chelyabinsk-like airburst",
			input: model.SimulationInput{Diameter: 20, Composition: model.CompositionRocky, Velocity: 19, ApproachAngle: 18},
			want:  model.OutcomeAirburst,
			check: func(t *testing.T, res *model.SimulationResult) {
				if res.FragmentationAltitude == nil || res.AirburstAltitude == nil || res.EnergyRelease <= 0 {
					t.Fatalf("airburst markers missing: %+v", res)
				}
			},
		},
		{
			name:  "large rocky land impact",
			input: model.SimulationInput{Diameter: 100, Composition: model.CompositionRocky, Velocity: 20, ApproachAngle: 60},
			want:  model.OutcomeLandImpact,
			check: func(t *testing.T, res *model.SimulationResult) {
				fx := res.ImpactEffects
				if fx.CraterDiameter == nil || fx.SeismicMagnitude == nil || fx.BlastRadius == nil || fx.BlastRadius.Severe <= 0 {
					t.Fatalf("land effects missing: %+v", fx)
				}
			},
		},
		{
			name: "metallic ocean impact",
			input: model.SimulationInput{Diameter: 100, Composition: model.CompositionMetallic, Velocity: 25, ApproachAngle: 45,
				ImpactLocation: model.Location{Lat: -20, Lon: 150, IsOcean: true}},
			want: model.OutcomeOceanImpact,
			check: func(t *testing.T, res *model.SimulationResult) {
				fx := res.ImpactEffects
				if fx.TsunamiHeight == nil || fx.TsunamiRadius == nil {
					t.Fatalf("tsunami effects missing: %+v", fx)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			res, err := env.client.Simulate(env.ctx, &api.SimulateRequest{Input: &in})
			if err != nil {
				t.Fatalf("Simulate: %v", err)
			}
			if res.Outcome != tt.want {
				t.Fatalf("outcome = %s, want %s", res.Outcome, tt.want)
			}
			tt.check(t, res)
		})
	}

	if got := testutil.CollectAndCount(env.collector.Simulations); got != 4 {
		t.Fatalf("simulation series = %d, want 4", got)
	}
}

func TestE2EWireMatchesLocalEngine(t *testing.T) {
	env := newAPITestEnv(t)
	in := model.SimulationInput{Diameter: 60, Composition: model.CompositionCarbonaceous, Velocity: 27, ApproachAngle: 30}

	remote, err := env.client.Simulate(env.ctx, &api.SimulateRequest{Input: &in})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	local, err := core.Simulate(in)
	if err != nil {
		t.Fatalf("core.Simulate: %v", err)
	}
	if !reflect.DeepEqual(*remote, local) {
		t.Fatalf("result changed over the wire:\nremote %+v\nlocal  %+v", *remote, local)
	}
}

func TestE2EPresetsAndErrors(t *testing.T) {
	env := newAPITestEnv(t)

	p, err := env.client.GetPreset(env.ctx, &api.GetPresetRequest{ID: "chicxulub"})
	if err != nil {
		t.Fatalf("GetPreset: %v", err)
	}
	if p.Input.Diameter != 10000 {
		t.Fatalf("chicxulub diameter = %v", p.Input.Diameter)
	}

	if _, err := env.client.GetPreset(env.ctx, &api.GetPresetRequest{ID: "nope"}); status.Code(err) != codes.NotFound {
		t.Fatalf("GetPreset unknown code = %v", status.Code(err))
	}

	bad := model.SimulationInput{Diameter: 20, Composition: "icy", Velocity: 19, ApproachAngle: 18}
	if _, err := env.client.Simulate(env.ctx, &api.SimulateRequest{Input: &bad}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("Simulate invalid code = %v", status.Code(err))
	}
}

func TestE2ERequestIDEchoed(t *testing.T) {
	env := newAPITestEnv(t)
	ctx := metadata.AppendToOutgoingContext(env.ctx, "x-request-id", "e2e-42")

	var header metadata.MD
	if _, err := env.client.ListPresets(ctx, grpc.Header(&header)); err != nil {
		t.Fatalf("ListPresets: %v", err)
	}
	if got := header.Get("x-request-id"); len(got) != 1 || got[0] != "e2e-42" {
		t.Fatalf("x-request-id header = %v", got)
	}
}

func TestE2EStreamTrajectory(t *testing.T) {
	env := newAPITestEnv(t)

	stream, err := env.client.StreamTrajectory(env.ctx, &api.StreamTrajectoryRequest{PresetID: "tunguska"})
	if err != nil {
		t.Fatalf("StreamTrajectory: %v", err)
	}

	var points int
	var result *model.SimulationResult
	for {
		frame, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		switch frame.Type {
		case api.FramePoint:
			if result != nil {
				t.Fatalf("point frame after result")
			}
			points++
		case api.FrameResult:
			result = frame.Result
		}
	}
	if result == nil {
		t.Fatalf("no result frame")
	}
	if points != len(result.Trajectory) || points == 0 {
		t.Fatalf("streamed %d points for %d samples", points, len(result.Trajectory))
	}
}

func TestE2EConcurrentSimulations(t *testing.T) {
	env := newAPITestEnv(t)
	ids := []string{"chelyabinsk", "tunguska", "meteor-crater", "chicxulub", "eltanin", "small-meteor"}

	var wg sync.WaitGroup
	errs := make(chan error, len(ids)*4)
	for n := 0; n < 4; n++ {
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if _, err := env.client.Simulate(env.ctx, &api.SimulateRequest{PresetID: id}); err != nil {
					errs <- err
				}
			}(id)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Simulate: %v", err)
	}
}
