package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReplayCollector exposes trajectory replay metrics for the gRPC stream and
// the websocket endpoint.
type ReplayCollector struct {
	ActiveStreams    *prometheus.GaugeVec
	PointsSent       *prometheus.CounterVec
	SimulatedSeconds *prometheus.CounterVec
	Rejected         *prometheus.CounterVec
}

// NewReplayCollector registers replay metrics against the provided registerer.
func NewReplayCollector(reg prometheus.Registerer) (*ReplayCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	active, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "impact_replay_active_streams",
		Help: "Trajectory replays currently in flight, by transport.",
	}, []string{"transport"}), "impact_replay_active_streams")
	if err != nil {
		return nil, err
	}

	points, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "impact_replay_points_total",
		Help: "Trajectory points delivered to replay clients, by transport.",
	}, []string{"transport"}), "impact_replay_points_total")
	if err != nil {
		return nil, err
	}

	simulated, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "impact_replay_simulated_seconds_total",
		Help: "Simulated entry time replayed to clients, by transport.",
	}, []string{"transport"}), "impact_replay_simulated_seconds_total")
	if err != nil {
		return nil, err
	}

	rejected, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "impact_rate_limited_total",
		Help: "Requests refused by the per-peer rate limiter, by transport.",
	}, []string{"transport"}), "impact_rate_limited_total")
	if err != nil {
		return nil, err
	}

	return &ReplayCollector{
		ActiveStreams:    active,
		PointsSent:       points,
		SimulatedSeconds: simulated,
		Rejected:         rejected,
	}, nil
}

// StreamStarted increments the active gauge and returns a func that
// decrements it.
func (c *ReplayCollector) StreamStarted(transport string) (done func()) {
	if c == nil || c.ActiveStreams == nil {
		return func() {}
	}
	g := c.ActiveStreams.WithLabelValues(transport)
	g.Inc()
	return g.Dec
}

// PointSent counts one delivered trajectory point.
func (c *ReplayCollector) PointSent(transport string) {
	if c == nil || c.PointsSent == nil {
		return
	}
	c.PointsSent.WithLabelValues(transport).Inc()
}

// Advanced adds d of replayed simulated time. Non-positive d is ignored.
func (c *ReplayCollector) Advanced(transport string, d time.Duration) {
	if c == nil || c.SimulatedSeconds == nil || d <= 0 {
		return
	}
	c.SimulatedSeconds.WithLabelValues(transport).Add(d.Seconds())
}

// RateLimited counts one refused request.
func (c *ReplayCollector) RateLimited(transport string) {
	if c == nil || c.Rejected == nil {
		return
	}
	c.Rejected.WithLabelValues(transport).Inc()
}
