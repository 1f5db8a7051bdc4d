// Package session tracks connected clients and owns the ordered outbound
// queue of each one.
package session

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/efreitasn/matchd/internal/domain"
	"github.com/efreitasn/matchd/internal/metrics"
	"github.com/efreitasn/matchd/internal/wire"
)

// Channel is the outbound half of a client connection. WriteRecord is only
// ever called from the session's writer goroutine.
type Channel interface {
	WriteRecord(b []byte) error
	Close() error
	RemoteAddr() string
}

// Info describes a registered session.
type Info struct {
	ClientID    int32     `json:"client_id"`
	Key         string    `json:"session_key"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
	Delivered   uint64    `json:"events_delivered"`
}

type session struct {
	id          int32
	key         uuid.UUID
	ch          Channel
	out         chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	connectedAt time.Time
	delivered   atomic.Uint64
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.ch.Close()
	})
}

// Registry maps client ids to their sessions. Ids start at 1 and are never
// reused within the lifetime of a Registry.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[int32]*session
	nextID    int32
	queueSize int
	closed    bool
	metrics   *metrics.Metrics
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewRegistry creates a Registry. queueSize bounds each session's outbound
// queue; a client that lets it fill up is dropped.
func NewRegistry(queueSize int, m *metrics.Metrics, logger *zap.Logger) *Registry {
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions:  make(map[int32]*session),
		queueSize: queueSize,
		metrics:   m,
		logger:    logger,
	}
}

// Register stores ch under the next client id, starts its writer and
// returns the id. After Close, ch is closed at once and the returned id is
// never deliverable.
func (r *Registry) Register(ch Channel) int32 {
	r.mu.Lock()
	r.nextID++
	if r.closed {
		id := r.nextID
		r.mu.Unlock()
		_ = ch.Close()
		return id
	}
	s := &session{
		id:          r.nextID,
		key:         uuid.New(),
		ch:          ch,
		out:         make(chan []byte, r.queueSize),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
	}
	r.sessions[s.id] = s
	r.mu.Unlock()

	r.metrics.SessionOpened()
	r.logger.Info("session registered",
		zap.Int32("client_id", s.id),
		zap.String("session_key", s.key.String()),
		zap.String("remote_addr", ch.RemoteAddr()),
	)

	r.wg.Add(1)
	go r.writeLoop(s)
	return s.id
}

// writeLoop is the single writer for a session's channel.
func (r *Registry) writeLoop(s *session) {
	defer r.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case b := <-s.out:
			if err := s.ch.WriteRecord(b); err != nil {
				r.logger.Warn("write to client failed",
					zap.Int32("client_id", s.id),
					zap.Error(err),
				)
				r.Unregister(s.id)
				return
			}
		}
	}
}

// Deliver encodes ev and queues it for clientID without waiting. It fails
// with domain.ErrUnknownClient if the id is not registered or its channel
// is closed, and with domain.ErrSlowConsumer if the queue is full. In both
// cases the session is removed.
//
// Deliver is called with the engine lock held, so it must never block.
func (r *Registry) Deliver(clientID int32, ev domain.Event) error {
	r.mu.RLock()
	s, ok := r.sessions[clientID]
	r.mu.RUnlock()
	if !ok {
		return domain.ErrUnknownClient
	}

	b := wire.EncodeEvent(ev)

	select {
	case <-s.done:
		r.Unregister(clientID)
		return domain.ErrUnknownClient
	default:
	}

	select {
	case s.out <- b:
		s.delivered.Add(1)
		return nil
	default:
		r.Unregister(clientID)
		return domain.ErrSlowConsumer
	}
}

// Unregister removes clientID and closes its channel. Calling it for an
// unknown id is a no-op.
func (r *Registry) Unregister(clientID int32) {
	r.mu.Lock()
	s, ok := r.sessions[clientID]
	if ok {
		delete(r.sessions, clientID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	s.close()
	r.metrics.SessionClosed()
	r.logger.Info("session unregistered",
		zap.Int32("client_id", clientID),
		zap.String("session_key", s.key.String()),
		zap.Uint64("events_delivered", s.delivered.Load()),
	)
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sessions returns a snapshot of all registered sessions ordered by id.
func (r *Registry) Sessions() []Info {
	r.mu.RLock()
	infos := make([]Info, 0, len(r.sessions))
	for _, s := range r.sessions {
		infos = append(infos, Info{
			ClientID:    s.id,
			Key:         s.key.String(),
			RemoteAddr:  s.ch.RemoteAddr(),
			ConnectedAt: s.connectedAt,
			Delivered:   s.delivered.Load(),
		})
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].ClientID < infos[j].ClientID })
	return infos
}

// Close unregisters every session and waits for their writers to exit.
// Later registrations are refused.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	ids := make([]int32, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Unregister(id)
	}
	r.wg.Wait()
}
