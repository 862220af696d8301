package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/audit"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/command"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/config"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/logging"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/pipeline"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Processor runs commands through the pipeline. *pipeline.Pipeline satisfies it.
type Processor interface {
	ProcessText(ctx context.Context, text string, info pipeline.RequestInfo) (*pipeline.Response, error)
	ProcessCommand(ctx context.Context, cmd command.Command, info pipeline.RequestInfo) (*pipeline.Response, error)
	ProcessBatch(ctx context.Context, cmds []command.Command, info pipeline.RequestInfo) (*pipeline.BatchResponse, error)
}

// KeyVerifier checks the presented API key. *auth.Verifier satisfies it.
type KeyVerifier interface {
	Verify(candidate string) bool
}

// Invalidator drops cached device-control credentials.
// *credentials.Provider satisfies it.
type Invalidator interface {
	Invalidate()
}

// StatsSource reports audit counters. *audit.Logger satisfies it.
type StatsSource interface {
	Stats() audit.Stats
}

// HealthChecker is implemented by optional connectors (MQTT, InfluxDB).
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Pipeline Processor
	Verifier KeyVerifier

	// Optional.
	Recorder    audit.Recorder
	Findings    audit.Repository
	Credentials Invalidator
	Stats       StatsSource
	Checks      map[string]HealthChecker
	Version     string
}

// Server is the HTTP API server for Jarvis Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	logger      *logging.Logger
	pipeline    Processor
	verifier    KeyVerifier
	recorder    audit.Recorder
	findings    audit.Repository
	credentials Invalidator
	stats       StatsSource
	checks      map[string]HealthChecker
	version     string
	startTime   time.Time
	server      *http.Server
	hub         *Hub
	cancel      context.CancelFunc // cancels the hub on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called. Its Hub exists from
// construction so it can be registered as an audit stream first.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if deps.Verifier == nil {
		return nil, fmt.Errorf("api key verifier is required")
	}
	if deps.Recorder == nil {
		deps.Recorder = audit.Nop{}
	}

	return &Server{
		cfg:         deps.Config,
		logger:      deps.Logger.With("component", "api"),
		pipeline:    deps.Pipeline,
		verifier:    deps.Verifier,
		recorder:    deps.Recorder,
		findings:    deps.Findings,
		credentials: deps.Credentials,
		stats:       deps.Stats,
		checks:      deps.Checks,
		version:     deps.Version,
		startTime:   time.Now(),
		hub:         NewHub(deps.WS, deps.Logger),
	}, nil
}

// Hub returns the live event hub. Register it with the audit logger.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
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

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
