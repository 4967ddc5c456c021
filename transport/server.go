package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/sseplex/logger"
	"github.com/kbukum/sseplex/transport/middleware"
	"github.com/kbukum/sseplex/util"
)

const defaultMaxBodySize = 1 << 20

// Server is the Gin HTTP server carrying the subscribe and publish routes.
// It speaks HTTP/1.1 and cleartext HTTP/2, so many streams can share one
// connection.
type Server struct {
	httpServer *http.Server
	h2         *http2.Server
	engine     *gin.Engine
	// cancelRequests ends the context of every in-flight request. Event
	// streams never go idle on their own, so Shutdown triggers it.
	cancelRequests context.CancelFunc
	config     Config
	log        *logger.Logger

	mu      sync.RWMutex
	addr    string
	serving bool
}

// New creates a Server. Call ApplyMiddleware and Register before Start.
// TLS files are loaded on Start.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}

	baseCtx, cancelRequests := context.WithCancel(context.Background())
	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h2c.NewHandler(engine, h2s),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}
	httpServer.RegisterOnShutdown(cancelRequests)

	return &Server{
		httpServer:     httpServer,
		h2:             h2s,
		engine:         engine,
		cancelRequests: cancelRequests,
		config:         cfg,
		log:            log.WithComponent("http-server"),
		addr:           cfg.Addr(),
	}
}

// Engine returns the underlying Gin engine.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Handler returns the root handler, h2c included.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Config returns the server configuration.
func (s *Server) Config() Config { return s.config }

// ApplyMiddleware installs the standard middleware stack: recovery,
// request id, CORS, body size limit and request logging.
func (s *Server) ApplyMiddleware() {
	size := util.ParseSizeOr(s.config.MaxBodySize, defaultMaxBodySize)

	s.engine.Use(middleware.Recovery(s.log))
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.CORS(s.config.CORS))
	s.engine.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, size)
		c.Next()
	})
	s.engine.Use(middleware.RequestLogger(s.log, HealthPath))
}

// Start binds the port and begins serving. It returns once the listener is
// bound; serving continues in a goroutine.
func (s *Server) Start(_ context.Context) error {
	s.log.Info("Starting HTTP server", logger.Fields("addr", s.httpServer.Addr))

	tlsConfig, err := s.config.TLS.ServerConfig()
	if err != nil {
		return fmt.Errorf("server tls: %w", err)
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	if tlsConfig != nil {
		tlsConfig.NextProtos = []string{http2.NextProtoTLS, "http/1.1"}
		if err := http2.ConfigureServer(s.httpServer, s.h2); err != nil {
			_ = listener.Close()
			return fmt.Errorf("server http2: %w", err)
		}
		listener = tls.NewListener(listener, tlsConfig)
	}

	s.mu.Lock()
	s.addr = listener.Addr().String()
	s.serving = true
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("Server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	s.log.Info("HTTP server started", logger.Fields(
		"addr", s.Addr(),
		"prefix", s.config.URLPrefix,
		"tls", tlsConfig != nil,
	))
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline. Shutdown
// cancels every request context, which ends open event streams.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	s.mu.Lock()
	s.serving = false
	s.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.cancelRequests()
	if err != nil {
		s.log.Error("Server shutdown error", logger.Fields(logger.FieldError, err.Error()))
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("HTTP server shut down successfully")
	return nil
}

// Serving reports whether Start succeeded and Stop has not been called.
func (s *Server) Serving() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serving
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}
