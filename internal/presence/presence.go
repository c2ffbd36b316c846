// Package presence reports over gRPC health checking whether an immersive
// session is presenting.
package presence

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/banshee-data/xrsession/internal/monitoring"
	"github.com/banshee-data/xrsession/internal/xr"
	"github.com/banshee-data/xrsession/internal/xr/event"
)

// ServiceName is the health-check service whose status follows the
// session. The empty service name always reports SERVING while the server
// runs.
const ServiceName = "xr.session"

// Server serves grpc.health.v1.Health.
type Server struct {
	addr     string
	health   *health.Server
	server   *grpc.Server
	listener net.Listener

	running atomic.Bool
	wg      sync.WaitGroup
}

// NewServer returns a stopped server that will listen on addr. The
// session service starts NOT_SERVING.
func NewServer(addr string) *Server {
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{addr: addr, health: hs}
}

// Health returns the underlying health service.
func (s *Server) Health() *health.Server { return s.health }

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(lis)
}

// Serve serves on lis in the background.
func (s *Server) Serve(lis net.Listener) error {
	if s.running.Load() {
		return fmt.Errorf("presence server already running")
	}
	s.listener = lis
	s.server = grpc.NewServer()
	healthpb.RegisterHealthServer(s.server, s.health)
	s.running.Store(true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		monitoring.Logf("presence: gRPC health listening on %s", lis.Addr())
		if err := s.server.Serve(lis); err != nil && s.running.Load() {
			monitoring.Logf("presence: gRPC server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop marks every service NOT_SERVING and stops the server.
func (s *Server) Stop() {
	if !s.running.Load() {
		return
	}
	s.running.Store(false)
	s.health.Shutdown()
	s.server.GracefulStop()
	s.wg.Wait()
	monitoring.Logf("presence: gRPC server stopped")
}

// SetPresenting sets the session service status.
func (s *Server) SetPresenting(presenting bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if presenting {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
}

// Attach mirrors m's session state until the returned function is called.
func (s *Server) Attach(m *xr.Manager) (detach func()) {
	s.SetPresenting(m.IsPresenting())
	start := m.AddEventListener(xr.EventSessionStart, func(event.Event) { s.SetPresenting(true) })
	end := m.AddEventListener(xr.EventSessionEnd, func(event.Event) { s.SetPresenting(false) })
	return func() {
		m.RemoveEventListener(start)
		m.RemoveEventListener(end)
	}
}
