package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/curtain-skill/internal/audit"
	"github.com/nerrad567/curtain-skill/internal/device"
	"github.com/nerrad567/curtain-skill/internal/infrastructure/config"
	"github.com/nerrad567/curtain-skill/internal/skill"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Logger defines the logging interface used by the API server.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// DeviceRegistry is the registry view the API needs. *device.Registry
// implements it.
type DeviceRegistry interface {
	ListDevices(ctx context.Context, filter device.Filter) ([]device.GlobalDevice, error)
	Refresh(ctx context.Context) error
	Snapshot() *device.Snapshot
}

// StatsProvider reports runtime traffic counters. *skill.Runtime implements it.
type StatsProvider interface {
	Stats() skill.Stats
}

// ConnectionChecker reports broker connectivity and subscriptions.
// *mqtt.Client implements it.
type ConnectionChecker interface {
	IsConnected() bool
	SubscriptionCount() int
	HasSubscription(topic string) bool
}

// Pinger checks a backing store. *database.DB implements it.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   Logger
	Registry DeviceRegistry
	Runtime  StatsProvider     // optional
	MQTT     ConnectionChecker // optional
	Database Pinger            // optional
	Audit    audit.Repository  // optional; enables /audit
	Version  string

	// IntentTopic, when set, must be subscribed for /health to pass.
	IntentTopic string
}

// Server is the operations HTTP server.
//
// Thread Safety: All methods are safe for concurrent use.
type Server struct {
	cfg       config.APIConfig
	logger    Logger
	registry  DeviceRegistry
	runtime   StatsProvider
	mqtt      ConnectionChecker
	db        Pinger
	audit     audit.Repository
	version   string
	intents   string
	startTime time.Time

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates an API server. It does not listen until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		registry:  deps.Registry,
		runtime:   deps.Runtime,
		mqtt:      deps.MQTT,
		db:        deps.Database,
		audit:     deps.Audit,
		version:   deps.Version,
		intents:   deps.IntentTopic,
		startTime: time.Now(),
	}, nil
}

// Start binds the listener and serves in a background goroutine. A bind
// failure is returned; later serve errors are logged.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("api server already started")
	}

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	srv := s.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
