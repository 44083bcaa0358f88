package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/thruflo/captcha/internal/challenge"
	"github.com/thruflo/captcha/internal/config"
	"github.com/thruflo/captcha/internal/eventlog"
	"github.com/thruflo/captcha/internal/logging"
	"github.com/thruflo/captcha/internal/stats"
)

// ErrAcceptFailed is returned by Run when the listener stops producing
// connections for a reason other than Stop.
var ErrAcceptFailed = errors.New("accept failed")

var errNoActiveConnection = errors.New("no active connection")

// Server serves captcha challenges to one client at a time.
type Server struct {
	listener net.Listener

	stats  *stats.Store
	events *eventlog.Log

	source      challenge.Source
	evenOddSize int
	limiter     *rateLimiter
	logger      *logging.Logger

	mu         sync.Mutex
	conn       net.Conn
	connActive bool
	stopped    bool
}

// Config holds the construction-time settings of a Server.
type Config struct {
	Address   string
	Port      int
	StatFile  string
	LogFile   string
	RateLimit config.RateLimitConfig
}

// Option customizes a Server.
type Option func(*Server) error

// WithSource sets the random source challenges are drawn from.
func WithSource(src challenge.Source) Option {
	return func(s *Server) error {
		if src == nil {
			return errors.New("source is required")
		}
		s.source = src
		return nil
	}
}

// WithEvenOddSize sets how many numbers an even/odd challenge carries.
func WithEvenOddSize(n int) Option {
	return func(s *Server) error {
		if n <= 0 {
			return fmt.Errorf("even/odd size must be positive, got %d", n)
		}
		s.evenOddSize = n
		return nil
	}
}

// WithLogger sets the operator logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("logger is required")
		}
		s.logger = logger
		return nil
	}
}

// NewServer loads the stat file and binds the listener.
func NewServer(cfg *Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.StatFile == "" {
		return nil, errors.New("stat file path is required")
	}
	if cfg.LogFile == "" {
		return nil, errors.New("log file path is required")
	}

	s := &Server{
		events:      eventlog.New(cfg.LogFile),
		source:      challenge.NewRandSource(),
		evenOddSize: challenge.Size,
		limiter:     newRateLimiter(cfg.RateLimit),
		logger:      logging.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply server option: %w", err)
		}
	}

	store, err := stats.Load(cfg.StatFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	s.stats = store

	addr := net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	return s, nil
}

// NewServerFromConfig creates a Server from a loaded config file.
func NewServerFromConfig(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config is required")
	}
	return NewServer(&Config{
		Address:   cfg.Server.Address,
		Port:      cfg.Server.Port,
		StatFile:  cfg.Stats.StatFile,
		LogFile:   cfg.Stats.LogFile,
		RateLimit: cfg.RateLimit,
	}, opts...)
}

// ListenAddr returns the address the server is bound to.
// Useful when port 0 is used to get an available port.
func (s *Server) ListenAddr() string {
	return s.listener.Addr().String()
}

// Stats returns the stats store.
func (s *Server) Stats() *stats.Store {
	return s.stats
}

// Run accepts clients one after another until a client sends
// SERVER_SHUTDOWN, ctx is cancelled, Stop is called, or accept fails.
// Only an accept failure is reported as an error.
func (s *Server) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, s.Stop)
	defer stop()
	defer s.Stop()

	s.logger.Info("serving captchas", "addr", s.ListenAddr(), "stat_file", s.stats.Path())

	for {
		conn, err := s.accept()
		if err != nil {
			if s.isStopped() {
				return nil
			}
			s.logger.Error("accept failed, no longer serving", "error", err)
			return fmt.Errorf("%w: %v", ErrAcceptFailed, err)
		}

		host := remoteHost(conn.RemoteAddr())
		if res := s.limiter.check(host); !res.Allowed {
			s.logger.Warn("refusing blocked host", "remote", host, "retry_after", res.RetryAfter)
			s.closeConn()
			continue
		}

		if s.serveConn(conn, host) == stateShutdown {
			s.logger.Info("shutdown requested by client", "remote", host)
			return nil
		}
	}
}

// Stop closes the listener and the active connection. It is safe to call
// more than once and from any goroutine.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	s.listener.Close()
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *Server) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// accept blocks for the next client and records it as the active
// connection. A failed accept leaves no connection active.
func (s *Server) accept() (net.Conn, error) {
	conn, err := s.listener.Accept()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.conn = nil
		s.connActive = false
		return nil, err
	}
	if s.stopped {
		conn.Close()
		return nil, net.ErrClosed
	}
	s.conn = conn
	s.connActive = true
	return conn, nil
}

// activeConn returns the connection challenges are exchanged on.
func (s *Server) activeConn() (net.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connActive {
		return nil, errNoActiveConnection
	}
	return s.conn, nil
}

func (s *Server) closeConn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.conn = nil
	s.connActive = false
}

func remoteHost(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
