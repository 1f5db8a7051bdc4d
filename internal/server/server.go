// Package server accepts client connections over TCP and WebSocket and
// runs one session per connection: register, welcome, then feed every
// decoded record to the engine until the connection ends.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/efreitasn/matchd/internal/clock"
	"github.com/efreitasn/matchd/internal/domain"
	"github.com/efreitasn/matchd/internal/engine"
	"github.com/efreitasn/matchd/internal/metrics"
	"github.com/efreitasn/matchd/internal/session"
	"github.com/efreitasn/matchd/internal/wire"
)

// Matcher is the part of the engine a connection needs.
type Matcher interface {
	Submit(sub domain.Submission) []domain.Event
	CancelClient(clientID int32) int
}

// Sessions is the part of the session registry a connection needs.
type Sessions interface {
	Register(ch session.Channel) int32
	Unregister(clientID int32)
}

// Options tunes connection handling.
type Options struct {
	// CancelOrphans removes a client's resting orders when its connection
	// ends. When false they stay on the book and still trade.
	CancelOrphans bool
	// WriteTimeout bounds a single outbound write. Zero means no deadline.
	WriteTimeout time.Duration
	// Clock stamps welcome events. Defaults to the wall clock.
	Clock clock.Clock
}

// Server owns the connection handlers. It is safe to serve several
// listeners and the WebSocket endpoint from one Server.
type Server struct {
	matcher  Matcher
	sessions Sessions
	sink     engine.Sink
	opts     Options
	metrics  *metrics.Metrics
	logger   *zap.Logger

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// New creates a Server. sink must be the same sink the engine emits to,
// so that the welcome event travels the same path as every other event.
func New(
	matcher Matcher,
	sessions Sessions,
	sink engine.Sink,
	opts Options,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Server {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		matcher:  matcher,
		sessions: sessions,
		sink:     sink,
		opts:     opts,
		metrics:  m,
		logger:   logger,
	}
}

// Serve accepts TCP connections on ln until ctx is cancelled or ln fails.
// It closes ln before returning. A cancelled ctx is not an error.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer ln.Close()

	s.logger.Info("order listener started", zap.String("addr", ln.Addr().String()))
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if !s.track() {
			_ = conn.Close()
			continue
		}
		go func() {
			defer s.wg.Done()
			s.serveTCP(conn)
		}()
	}
}

// track admits a new connection handler. It reports false once the
// server is closing; the caller must then drop the connection.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.wg.Add(1)
	return true
}

// Close stops admitting connections on every listener and on the
// WebSocket endpoint. Running handlers are left alone.
func (s *Server) Close() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
}

// Wait closes the server and blocks until every connection handler has
// returned. Handlers end when their connection is closed, which the
// session registry does on Close.
func (s *Server) Wait() {
	s.Close()
	s.wg.Wait()
}

// recordReader returns the next inbound record. io.EOF means the client
// went away cleanly.
type recordReader func() (wire.Record, error)

func (s *Server) serveSession(ch session.Channel, read recordReader) {
	id := s.sessions.Register(ch)
	defer s.disconnect(id)

	// Nothing else can be addressed to id before its first order, so the
	// welcome is always the first record the client sees.
	s.sink.Emit(domain.Welcome(id, s.opts.Clock.Now().Unix()))

	for {
		rec, err := read()
		if err != nil {
			s.logReadError(id, err)
			return
		}
		s.matcher.Submit(wire.ToSubmission(id, rec))
	}
}

func (s *Server) logReadError(id int32, err error) {
	var ce *wire.CodecError
	switch {
	case errors.Is(err, io.EOF):
		s.logger.Debug("client disconnected", zap.Int32("client_id", id))
	case errors.As(err, &ce):
		s.metrics.CodecError()
		s.logger.Warn("malformed record, closing connection",
			zap.Int32("client_id", id),
			zap.Error(err),
		)
	case errors.Is(err, net.ErrClosed):
		s.logger.Debug("connection closed by server", zap.Int32("client_id", id))
	default:
		s.logger.Info("connection read failed",
			zap.Int32("client_id", id),
			zap.Error(err),
		)
	}
}

func (s *Server) disconnect(id int32) {
	s.sessions.Unregister(id)
	if s.opts.CancelOrphans {
		s.matcher.CancelClient(id)
	}
}
