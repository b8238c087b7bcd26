package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/impact-simulator/core"
	"github.com/signalsfoundry/impact-simulator/internal/api"
	"github.com/signalsfoundry/impact-simulator/internal/config"
	"github.com/signalsfoundry/impact-simulator/internal/logging"
	"github.com/signalsfoundry/impact-simulator/internal/observability"
	"github.com/signalsfoundry/impact-simulator/kb"
	"github.com/signalsfoundry/impact-simulator/model"
)

const shutdownGrace = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "Optional config file (YAML, TOML or JSON); IMPACT_* env vars override it")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "impact-server: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Logging())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.TracingSettings(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.GRPCAddr), logging.Err(err))
		os.Exit(1)
	}
	var httpLis net.Listener
	if cfg.HTTPAddr != "" {
		if httpLis, err = net.Listen("tcp", cfg.HTTPAddr); err != nil {
			log.Error(ctx, "failed to listen for HTTP", logging.String("addr", cfg.HTTPAddr), logging.Err(err))
			os.Exit(1)
		}
	}

	if err := run(ctx, cfg, log, prometheus.DefaultRegisterer, grpcLis, httpLis); err != nil {
		log.Error(ctx, "server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves gRPC on grpcLis and, when httpLis is non-nil, /metrics and the
// websocket replay endpoint on httpLis, until ctx is cancelled.
func run(ctx context.Context, cfg config.Config, log logging.Logger, reg prometheus.Registerer, grpcLis, httpLis net.Listener) error {
	collector, err := observability.NewCollector(reg)
	if err != nil {
		return fmt.Errorf("metrics collector: %w", err)
	}
	replayMetrics, err := observability.NewReplayCollector(reg)
	if err != nil {
		return fmt.Errorf("replay metrics: %w", err)
	}

	presets, err := loadPresets(ctx, cfg.PresetsPath, log)
	if err != nil {
		return err
	}
	collector.SetPresetCount(presets.Len())
	unsubscribe := presets.Subscribe(func(kb.Event) { collector.SetPresetCount(presets.Len()) })
	defer unsubscribe()

	engine := core.NewSimulationEngine(core.WithRunObserver(func(_ model.SimulationInput, run core.EntryRun) {
		collector.ObserveEntry(run.Steps, run.Duration)
	}))

	svc := api.NewSimulationService(engine, presets,
		api.WithMetrics(collector),
		api.WithReplayMetrics(replayMetrics),
		api.WithReplayOptions(api.ReplayOptions{Mode: cfg.ReplayMode(), Speedup: cfg.Replay.Speedup}),
		api.WithLogger(log),
	)

	limiter := api.NewPeerRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	limiter.OnReject(replayMetrics.RateLimited)

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			api.RequestIDUnaryServerInterceptor(log),
			limiter.UnaryServerInterceptor(),
			collector.UnaryServerInterceptor(),
			api.TracingUnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			api.RequestIDStreamServerInterceptor(log),
			limiter.StreamServerInterceptor(),
			collector.StreamServerInterceptor(),
			api.TracingStreamServerInterceptor(),
		),
	)
	api.RegisterSimulationServiceServer(server, svc)

	errCh := make(chan error, 2)
	log.Info(ctx, "starting impact gRPC server", logging.String("addr", grpcLis.Addr().String()))
	go func() {
		if err := server.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var httpSrv *http.Server
	if httpLis != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		mux.Handle("/replay", limiter.Middleware("websocket", api.NewReplayHandler(svc, log)))
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		// Hijacked websocket connections outlive Shutdown; cancelling the base
		// context ends their replays.
		baseCtx, cancelBase := context.WithCancel(context.Background())
		defer cancelBase()
		httpSrv = &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return baseCtx },
		}
		httpSrv.RegisterOnShutdown(cancelBase)

		log.Info(ctx, "serving metrics and replay", logging.String("addr", httpLis.Addr().String()))
		go func() {
			if err := httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	log.Info(context.Background(), "shutting down impact server")
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(shutdownGrace):
		// Real-time replays can outlive the grace period.
		server.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if httpSrv != nil {
		_ = httpSrv.Shutdown(shutdownCtx)
	}
	return runErr
}

func loadPresets(ctx context.Context, path string, log logging.Logger) (*kb.KnowledgeBase, error) {
	presets, err := kb.NewWithDefaults(kb.WithValidator(api.ValidateSimulationInput))
	if err != nil {
		return nil, fmt.Errorf("default presets: %w", err)
	}
	if path == "" {
		return presets, nil
	}
	n, err := presets.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load presets %s: %w", path, err)
	}
	log.Info(ctx, "loaded presets", logging.String("path", path), logging.Int("count", n))
	return presets, nil
}
