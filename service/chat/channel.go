package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"PingUp/logger"
)

const (
	DefaultHeartbeat = 20 * time.Second
	DefaultBuffer    = 64
)

// Channel is one open server to client stream owned by a single user.
type Channel interface {
	ID() string
	UserID() string
	// Write enqueues payload without blocking. It reports false when the
	// channel is closed or was closed because its queue overflowed.
	Write(payload []byte) bool
	Close()
	Done() <-chan struct{}
}

// Transport frames payloads for one wire format. Only the Stream writer
// goroutine calls it.
type Transport interface {
	WriteEvent(payload []byte) error
	WriteHeartbeat() error
	Close() error
}

type StreamOptions struct {
	Heartbeat time.Duration
	Buffer    int
}

func (o StreamOptions) withDefaults() StreamOptions {
	if o.Heartbeat <= 0 {
		o.Heartbeat = DefaultHeartbeat
	}
	if o.Buffer <= 0 {
		o.Buffer = DefaultBuffer
	}
	return o
}

// Stream is a Channel backed by a Transport with a bounded outbound queue
// drained by Serve.
type Stream struct {
	id     string
	userID string
	t      Transport
	opts   StreamOptions

	send chan []byte
	done chan struct{}
	once sync.Once
	log  *zap.Logger
}

func NewStream(userID string, t Transport, opts StreamOptions) *Stream {
	opts = opts.withDefaults()
	id := uuid.NewString()
	return &Stream{
		id:     id,
		userID: userID,
		t:      t,
		opts:   opts,
		send:   make(chan []byte, opts.Buffer),
		done:   make(chan struct{}),
		log:    logger.Named("stream").With(zap.String("user", userID), zap.String("channel", id)),
	}
}

func (s *Stream) ID() string            { return s.id }
func (s *Stream) UserID() string        { return s.userID }
func (s *Stream) Done() <-chan struct{} { return s.done }

func (s *Stream) Write(payload []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- payload:
		return true
	default:
		s.log.Warn("outbound queue full, closing slow channel", zap.Int("buffer", s.opts.Buffer))
		s.Close()
		return false
	}
}

func (s *Stream) Close() {
	s.once.Do(func() { close(s.done) })
}

// Serve is the single writer. It returns when ctx ends, Close is called or a
// frame/heartbeat write fails; the transport is released either way.
func (s *Stream) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Heartbeat)
	defer func() {
		ticker.Stop()
		s.Close()
		_ = s.t.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case payload := <-s.send:
			if err := s.t.WriteEvent(payload); err != nil {
				s.log.Debug("write event failed", zap.Error(err))
				return err
			}
		case <-ticker.C:
			if err := s.t.WriteHeartbeat(); err != nil {
				s.log.Debug("heartbeat failed", zap.Error(err))
				return err
			}
		}
	}
}
