package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Collector bundles Prometheus metrics for the simulation service and provides
// helpers to wire them into gRPC servers and HTTP handlers.
type Collector struct {
	gatherer prometheus.Gatherer

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec

	Simulations     *prometheus.CounterVec
	SimulationSteps prometheus.Histogram
	EntryDuration   prometheus.Histogram
	Presets         prometheus.Gauge
}

// NewCollector registers service Prometheus metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "impact_requests_total",
		Help: "Total number of handled RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"}), "impact_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "impact_request_duration_seconds",
		Help:    "RPC latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"service", "method"}), "impact_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	simulations, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "impact_simulations_total",
		Help: "Completed simulations by outcome and composition.",
	}, []string{"outcome", "composition"}), "impact_simulations_total")
	if err != nil {
		return nil, err
	}

	steps, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "impact_simulation_steps",
		Help:    "Integrator steps taken per simulation.",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2000, 3001},
	}), "impact_simulation_steps")
	if err != nil {
		return nil, err
	}

	entry, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "impact_entry_duration_seconds",
		Help:    "Simulated time from the entry interface to the end of the run.",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
	}), "impact_entry_duration_seconds")
	if err != nil {
		return nil, err
	}

	presets, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "impact_presets",
		Help: "Number of scenarios in the presets store.",
	}), "impact_presets")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		RPCRequests:     requests,
		RPCDurations:    durations,
		Simulations:     simulations,
		SimulationSteps: steps,
		EntryDuration:   entry,
		Presets:         presets,
	}, nil
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *Collector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		c.observeRPC(fullMethod, start, err)
		return resp, err
	}
}

// StreamServerInterceptor records request counts and durations for streaming
// RPCs. The duration covers the whole stream.
func (c *Collector) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		c.observeRPC(fullMethod, start, err)
		return err
	}
}

func (c *Collector) observeRPC(fullMethod string, start time.Time, err error) {
	if c == nil {
		return
	}
	service, method := SplitMethod(fullMethod)
	code := status.Code(err).String()

	if c.RPCRequests != nil {
		c.RPCRequests.WithLabelValues(service, method, code).Inc()
	}
	if c.RPCDurations != nil {
		c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
	}
}

// RecordSimulation counts one finished simulation.
func (c *Collector) RecordSimulation(outcome, composition string) {
	if c == nil || c.Simulations == nil {
		return
	}
	c.Simulations.WithLabelValues(outcome, composition).Inc()
}

// ObserveEntry records integrator effort for one run. simulated is the
// simulated entry time in seconds.
func (c *Collector) ObserveEntry(steps int, simulated float64) {
	if c == nil {
		return
	}
	if c.SimulationSteps != nil {
		c.SimulationSteps.Observe(float64(steps))
	}
	if c.EntryDuration != nil {
		c.EntryDuration.Observe(simulated)
	}
}

// SetPresetCount updates the presets gauge.
func (c *Collector) SetPresetCount(n int) {
	if c == nil || c.Presets == nil {
		return
	}
	c.Presets.Set(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

// register adds c to reg, reusing an identical collector that is already
// registered under the same descriptor.
func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
