package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
)

// ErrRateLimited is returned when a peer exceeds its request budget.
var ErrRateLimited = errors.New("rate limit exceeded")

// PeerRateLimiter keeps one token bucket per client host. A nil
// *PeerRateLimiter allows everything.
type PeerRateLimiter struct {
	mu    sync.Mutex
	peers map[string]*rate.Limiter
	r     rate.Limit
	b     int

	onReject func(transport string)
}

// NewPeerRateLimiter returns a limiter granting perSecond requests per host
// with the given burst, or nil when perSecond <= 0.
func NewPeerRateLimiter(perSecond float64, burst int) *PeerRateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &PeerRateLimiter{
		peers: make(map[string]*rate.Limiter),
		r:     rate.Limit(perSecond),
		b:     burst,
	}
}

// OnReject registers fn to be told about every refused request.
func (l *PeerRateLimiter) OnReject(fn func(transport string)) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.onReject = fn
	l.mu.Unlock()
}

// Limiter returns the bucket for key, creating it on first use.
func (l *PeerRateLimiter) Limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.peers[key]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.peers[key] = limiter
	}
	return limiter
}

// Allow consumes one token for key. transport labels rejections.
func (l *PeerRateLimiter) Allow(key, transport string) bool {
	if l == nil {
		return true
	}
	if l.Limiter(key).Allow() {
		return true
	}
	l.mu.Lock()
	fn := l.onReject
	l.mu.Unlock()
	if fn != nil {
		fn(transport)
	}
	return false
}

// UnaryServerInterceptor rejects unary calls over budget with ResourceExhausted.
func (l *PeerRateLimiter) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !l.Allow(peerKey(ctx), "grpc") {
			return nil, ToStatusError(ErrRateLimited)
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor applies the same budget to stream opens.
func (l *PeerRateLimiter) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if !l.Allow(peerKey(ss.Context()), "grpc") {
			return ToStatusError(ErrRateLimited)
		}
		return handler(srv, ss)
	}
}

// Middleware applies the budget to HTTP requests, answering 429 when exceeded.
func (l *PeerRateLimiter) Middleware(transport string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(hostOf(r.RemoteAddr), transport) {
			http.Error(w, ErrRateLimited.Error(), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func peerKey(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	return hostOf(p.Addr.String())
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
