package health

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported for the booking API.
const ServiceName = "roombook"

// CheckFunc checks one dependency.
type CheckFunc func(ctx context.Context) error

// Monitor runs readiness checks and reports the outcome over HTTP
// (/healthz, /readyz) and the standard gRPC health protocol.
type Monitor struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	results map[string]string
	ready   bool
	timeout time.Duration

	grpc   *grpchealth.Server
	logger zerolog.Logger
}

func NewMonitor(logger zerolog.Logger) *Monitor {
	m := &Monitor{
		checks:  make(map[string]CheckFunc),
		results: make(map[string]string),
		timeout: 2 * time.Second,
		grpc:    grpchealth.NewServer(),
		logger:  logger.With().Str("component", "health").Logger(),
	}
	m.grpc.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return m
}

// Register adds a named readiness check.
func (m *Monitor) Register(name string, check CheckFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = check
}

// CheckNow runs every check once and updates the reported status.
func (m *Monitor) CheckNow(ctx context.Context) bool {
	m.mu.RLock()
	checks := make(map[string]CheckFunc, len(m.checks))
	for name, c := range m.checks {
		checks[name] = c
	}
	m.mu.RUnlock()

	results := make(map[string]string, len(checks))
	ready := true
	for name, check := range checks {
		cctx, cancel := context.WithTimeout(ctx, m.timeout)
		err := check(cctx)
		cancel()
		if err != nil {
			ready = false
			results[name] = err.Error()
			m.logger.Warn().Err(err).Str("check", name).Msg("readiness check failed")
			continue
		}
		results[name] = "ok"
	}

	m.mu.Lock()
	m.results = results
	m.ready = ready
	m.mu.Unlock()

	status := healthpb.HealthCheckResponse_SERVING
	if !ready {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	m.grpc.SetServingStatus(ServiceName, status)
	m.grpc.SetServingStatus("", status)
	return ready
}

// Run re-checks every interval until ctx ends, then reports NOT_SERVING.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.CheckNow(ctx)
		select {
		case <-ctx.Done():
			m.grpc.Shutdown()
			return
		case <-ticker.C:
		}
	}
}

// Ready reports the result of the last check.
func (m *Monitor) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

// Handler serves /healthz (liveness) and /readyz (last check results).
func (m *Monitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		m.mu.RLock()
		ready := m.ready
		checks := make(map[string]string, len(m.results))
		for k, v := range m.results {
			checks[k] = v
		}
		m.mu.RUnlock()

		code := http.StatusOK
		status := "ready"
		if !ready {
			code = http.StatusServiceUnavailable
			status = "not ready"
		}
		writeJSON(w, code, map[string]any{"status": status, "checks": checks})
	})
	return mux
}

// RegisterGRPC exposes the health service on s.
func (m *Monitor) RegisterGRPC(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, m.grpc)
}

// ServeGRPC serves the health protocol on lis until ctx ends.
func (m *Monitor) ServeGRPC(ctx context.Context, lis net.Listener) error {
	s := grpc.NewServer()
	m.RegisterGRPC(s)

	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()
	return s.Serve(lis)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
