package chat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeTransport records frames written by the Stream writer.
type fakeTransport struct {
	mu         sync.Mutex
	events     [][]byte
	heartbeats int
	closed     atomic.Bool
	failWrites bool
}

func (f *fakeTransport) WriteEvent(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("broken pipe")
	}
	f.events = append(f.events, append([]byte(nil), p...))
	return nil
}

func (f *fakeTransport) WriteHeartbeat() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("broken pipe")
	}
	f.heartbeats++
	return nil
}

func (f *fakeTransport) Close() error {
	f.closed.Store(true)
	return nil
}

func (f *fakeTransport) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, string(e))
	}
	return out
}

func (f *fakeTransport) Heartbeats() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heartbeats
}

// serve runs s.Serve in the background and returns a stop func that waits for it.
func serve(t *testing.T, s *Stream) (stop func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx) }()
	return func() error {
		cancel()
		select {
		case err := <-errCh:
			return err
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return")
			return nil
		}
	}
}
