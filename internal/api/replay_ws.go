package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/signalsfoundry/impact-simulator/internal/logging"
	"github.com/signalsfoundry/impact-simulator/model"
)

const (
	wsWriteWait  = 10 * time.Second
	wsCloseGrace = time.Second
)

// ReplayHandler streams a trajectory replay over a websocket. The scenario is
// taken from the query string, either ?preset=<id> or the inline fields
// diameter, composition, velocity, angle, lat, lon and ocean. Optional
// speedup and accelerated control pacing; from resumes at a sample index.
type ReplayHandler struct {
	svc      *SimulationService
	log      logging.Logger
	upgrader websocket.Upgrader
}

// NewReplayHandler returns an http.Handler for the replay endpoint.
func NewReplayHandler(svc *SimulationService, log logging.Logger) *ReplayHandler {
	if log == nil {
		log = logging.Noop()
	}
	return &ReplayHandler{
		svc: svc,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *ReplayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), h.log.With(logging.String("path", r.URL.Path)))

	req, err := parseReplayQuery(r.URL.Query())
	if err == nil {
		err = validateSpeedup(req.Speedup)
	}
	var in model.SimulationInput
	if err == nil {
		in, err = h.svc.resolve(req.Input, req.PresetID)
	}
	if err != nil {
		log.Debug(ctx, "replay request rejected", logging.Err(err))
		http.Error(w, err.Error(), httpStatus(err))
		return
	}

	res, err := h.svc.run(ctx, in)
	if err != nil {
		log.Error(ctx, "simulation failed", logging.Err(err))
		http.Error(w, err.Error(), httpStatus(err))
		return
	}
	if err := validateFromIndex(req.FromIndex, len(res.Trajectory)); err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Warn(ctx, "websocket upgrade failed", logging.Err(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The client never sends; reading only surfaces its close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	send := func(f *ReplayFrame) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(f)
	}
	if err := h.svc.Replay(ctx, res, req, "websocket", send); err != nil {
		log.Debug(ctx, "replay ended early", logging.Err(err))
		return
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replay complete")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsCloseGrace))
	log.Debug(ctx, "replay complete", logging.Int("points", len(res.Trajectory)))
}

func parseReplayQuery(q url.Values) (*StreamTrajectoryRequest, error) {
	req := &StreamTrajectoryRequest{PresetID: q.Get("preset")}

	var err error
	if req.Speedup, err = optionalFloat(q, "speedup"); err != nil {
		return nil, err
	}
	if v := q.Get("accelerated"); v != "" {
		if req.Accelerated, err = strconv.ParseBool(v); err != nil {
			return nil, errorf("accelerated %q is not a boolean", v)
		}
	}
	if v := q.Get("from"); v != "" {
		if req.FromIndex, err = strconv.Atoi(v); err != nil || req.FromIndex < 0 {
			return nil, errorf("from %q is not a sample index", v)
		}
	}

	if q.Get("diameter") == "" {
		return req, nil
	}

	in := &model.SimulationInput{Composition: model.Composition(q.Get("composition"))}
	fields := []struct {
		key string
		dst *float64
	}{
		{"diameter", &in.Diameter},
		{"velocity", &in.Velocity},
		{"angle", &in.ApproachAngle},
		{"lat", &in.ImpactLocation.Lat},
		{"lon", &in.ImpactLocation.Lon},
	}
	for _, f := range fields {
		if *f.dst, err = optionalFloat(q, f.key); err != nil {
			return nil, err
		}
	}
	if v := q.Get("ocean"); v != "" {
		if in.ImpactLocation.IsOcean, err = strconv.ParseBool(v); err != nil {
			return nil, errorf("ocean %q is not a boolean", v)
		}
	}
	req.Input = in
	return req, nil
}

func optionalFloat(q url.Values, key string) (float64, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errorf("%s %q is not a number", key, v)
	}
	return f, nil
}

// ReplayURL builds the query string ReplayHandler understands for in.
func ReplayURL(base string, in model.SimulationInput, speedup float64) string {
	q := url.Values{}
	q.Set("diameter", strconv.FormatFloat(in.Diameter, 'g', -1, 64))
	q.Set("composition", string(in.Composition))
	q.Set("velocity", strconv.FormatFloat(in.Velocity, 'g', -1, 64))
	q.Set("angle", strconv.FormatFloat(in.ApproachAngle, 'g', -1, 64))
	q.Set("lat", strconv.FormatFloat(in.ImpactLocation.Lat, 'g', -1, 64))
	q.Set("lon", strconv.FormatFloat(in.ImpactLocation.Lon, 'g', -1, 64))
	q.Set("ocean", strconv.FormatBool(in.ImpactLocation.IsOcean))
	if speedup > 0 {
		q.Set("speedup", strconv.FormatFloat(speedup, 'g', -1, 64))
	}
	return fmt.Sprintf("%s?%s", base, q.Encode())
}
