package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/impact-simulator/internal/api"
	"github.com/signalsfoundry/impact-simulator/internal/config"
	"github.com/signalsfoundry/impact-simulator/internal/logging"
	"github.com/signalsfoundry/impact-simulator/model"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Replay.Mode = "accelerated"
	cfg.RateLimit.PerSecond = 0
	return cfg
}

func TestImpactServerStartupSmoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}

	log := logging.New(logging.Config{Level: "warn", Output: io.Discard})
	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, testConfig(t), log, prometheus.NewRegistry(), grpcLis, httpLis)
	}()

	conn, err := grpc.NewClient(grpcLis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	defer conn.Close()
	client := api.NewSimulationServiceClient(conn)

	presets, err := client.ListPresets(ctx)
	if err != nil {
		t.Fatalf("ListPresets: %v", err)
	}
	if len(presets.Presets) != 6 {
		t.Fatalf("got %d presets, want 6", len(presets.Presets))
	}

	res, err := client.Simulate(ctx, &api.SimulateRequest{PresetID: "chelyabinsk"})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if res.Outcome != model.OutcomeAirburst {
		t.Fatalf("outcome = %s, want airburst", res.Outcome)
	}

	metricsURL := "http://" + httpLis.Addr().String() + "/metrics"
	resp, err := http.Get(metricsURL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, want := range []string{
		`impact_simulations_total{composition="rocky",outcome="airburst"} 1`,
		"impact_presets 6",
		"impact_simulation_steps_count 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("/metrics missing %q:\n%s", want, body)
		}
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("server returned error: %v", err)
	}
}

func TestImpactServerRateLimit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	cfg := testConfig(t)
	cfg.RateLimit.PerSecond = 0.001
	cfg.RateLimit.Burst = 1

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, logging.Noop(), prometheus.NewRegistry(), grpcLis, nil)
	}()

	conn, err := grpc.NewClient(grpcLis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	defer conn.Close()
	client := api.NewSimulationServiceClient(conn)

	if _, err := client.ListPresets(ctx); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := client.ListPresets(ctx); status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("second call code = %v, want ResourceExhausted", status.Code(err))
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("server returned error: %v", err)
	}
}

func TestImpactServerShutdownEndsWebsocketReplay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	cfg := testConfig(t)
	cfg.Replay.Mode = "realtime"
	cfg.Replay.Speedup = 1

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, logging.Noop(), prometheus.NewRegistry(), grpcLis, httpLis)
	}()

	// At 1x a chicxulub replay would run for minutes.
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+httpLis.Addr().String()+"/replay?preset=chicxulub", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("server returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("server did not stop")
	}

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := conn.NextReader(); err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				t.Fatalf("replay still open after shutdown")
			}
			break
		}
	}
}

func TestLoadPresetsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.json")
	body := `[{"id": "apophis", "name": "Apophis", "input": {"diameter": 370, "composition": "rocky", "velocity": 12.6, "approachAngle": 45}}]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	presets, err := loadPresets(context.Background(), path, logging.Noop())
	if err != nil {
		t.Fatalf("loadPresets: %v", err)
	}
	if presets.Len() != 7 {
		t.Fatalf("got %d presets, want defaults plus one", presets.Len())
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`[{"id": "slow", "input": {"diameter": 10, "composition": "rocky", "velocity": 2, "approachAngle": 45}}]`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadPresets(context.Background(), bad, logging.Noop()); err == nil {
		t.Fatalf("expected out-of-range preset to be rejected")
	}
}
