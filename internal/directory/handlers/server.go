// Package handlers provides the HTTP and gRPC transports for the directory
// service, bridging requests to the DirectoryController and translating
// domain errors into status codes.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gartstein/directory/internal/directory/browse"
	"github.com/gartstein/directory/internal/directory/models"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// DirectoryController defines the business logic interface
// that the gRPC/HTTP handlers will invoke.
type DirectoryController interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	GetCompany(ctx context.Context, id int64) (*models.Company, error)
	Browse(ctx context.Context, state browse.FilterState) (browse.View, error)
}

// Server holds references to both a gRPC server and an HTTP server.
type Server struct {
	grpcServer   *grpc.Server
	httpServer   *http.Server
	health       *health.Server
	logger       *zap.Logger
	grpcEndpoint string
	httpEndpoint string

	mu       sync.Mutex
	grpcAddr net.Addr
	httpAddr net.Addr
	ready    chan struct{}
}

// NewServer constructs a Server with separate endpoints for gRPC and HTTP.
// Port 0 picks a free port; the chosen addresses are available once Ready
// is closed.
func NewServer(
	grpcPort int,
	httpPort int,
	logger *zap.Logger,
	grpcOpts ...grpc.ServerOption,
) *Server {
	logger = logger.Named("server")
	opts := append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(NewLoggingInterceptor(logger).Unary())}, grpcOpts...)
	return &Server{
		grpcServer:   grpc.NewServer(opts...),
		httpServer:   &http.Server{ReadHeaderTimeout: 10 * time.Second},
		health:       health.NewServer(),
		logger:       logger,
		grpcEndpoint: fmt.Sprintf(":%d", grpcPort),
		httpEndpoint: fmt.Sprintf(":%d", httpPort),
		ready:        make(chan struct{}),
	}
}

// RegisterGRPCHandler registers the directory service and the standard
// health service on the gRPC server.
func (s *Server) RegisterGRPCHandler(h *CompanyHandler) {
	RegisterCompanyDirectoryServer(s.grpcServer, h)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus(CompanyDirectoryServiceName, healthpb.HealthCheckResponse_SERVING)
}

// RegisterHTTPRoutes mounts the REST API on a gateway ServeMux wrapped in
// the CORS and logging middleware.
func (s *Server) RegisterHTTPRoutes(h *RESTHandler) error {
	mux := runtime.NewServeMux()
	if err := h.Register(mux); err != nil {
		return err
	}

	s.httpServer.Handler = HTTPMiddleware(mux, s.logger)
	s.httpServer.Addr = s.httpEndpoint
	return nil
}

// Ready is closed once both listeners are bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// GRPCAddr returns the bound gRPC address, or "" before Ready.
func (s *Server) GRPCAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grpcAddr == nil {
		return ""
	}
	return s.grpcAddr.String()
}

// HTTPAddr returns the bound HTTP address, or "" before Ready.
func (s *Server) HTTPAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpAddr == nil {
		return ""
	}
	return s.httpAddr.String()
}

// Start runs the gRPC and HTTP servers concurrently, returning on the first
// error or once both have been stopped.
func (s *Server) Start() error {
	grpcLis, err := net.Listen("tcp", s.grpcEndpoint)
	if err != nil {
		return fmt.Errorf("gRPC listen error: %w", err)
	}
	httpLis, err := net.Listen("tcp", s.httpEndpoint)
	if err != nil {
		_ = grpcLis.Close()
		return fmt.Errorf("HTTP listen error: %w", err)
	}

	s.mu.Lock()
	s.grpcAddr = grpcLis.Addr()
	s.httpAddr = httpLis.Addr()
	s.mu.Unlock()
	close(s.ready)

	var wg sync.WaitGroup
	wg.Add(2)
	errChan := make(chan error, 2)

	// Start gRPC Server
	go func() {
		defer wg.Done()
		s.logger.Info("Starting gRPC server", zap.String("endpoint", grpcLis.Addr().String()))
		if err := s.grpcServer.Serve(grpcLis); err != nil {
			errChan <- fmt.Errorf("gRPC serve error: %w", err)
		}
	}()

	// Start HTTP Server
	go func() {
		defer wg.Done()
		s.logger.Info("Starting HTTP server", zap.String("endpoint", httpLis.Addr().String()))
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP serve error: %w", err)
		}
	}()

	go func() {
		wg.Wait()
		close(errChan)
	}()

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// Stop gracefully shuts down both gRPC and HTTP servers.
func (s *Server) Stop() {
	s.logger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	s.logger.Info("Servers stopped")
}
