package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStream_WritesInOrder(t *testing.T) {
	req := require.New(t)
	tr := &fakeTransport{}
	s := NewStream("u1", tr, StreamOptions{Heartbeat: time.Hour})
	stop := serve(t, s)

	req.True(s.Write([]byte(`{"n":1}`)))
	req.True(s.Write([]byte(`{"n":2}`)))

	req.Eventually(func() bool { return len(tr.Events()) == 2 }, time.Second, 5*time.Millisecond)
	req.Equal([]string{`{"n":1}`, `{"n":2}`}, tr.Events())

	req.NoError(stop())
	req.True(tr.closed.Load())
	req.False(s.Write([]byte(`{"n":3}`)))
}

func TestStream_Heartbeat(t *testing.T) {
	tr := &fakeTransport{}
	s := NewStream("u1", tr, StreamOptions{Heartbeat: 10 * time.Millisecond})
	stop := serve(t, s)
	defer stop()

	require.Eventually(t, func() bool { return tr.Heartbeats() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestStream_OverflowClosesSlowChannel(t *testing.T) {
	req := require.New(t)
	s := NewStream("u1", &fakeTransport{}, StreamOptions{Buffer: 1})

	// nobody drains the queue
	req.True(s.Write([]byte("a")))
	req.False(s.Write([]byte("b")))

	select {
	case <-s.Done():
	default:
		t.Fatal("channel should be closed after overflow")
	}
	req.False(s.Write([]byte("c")))
}

func TestStream_CloseIsIdempotent(t *testing.T) {
	s := NewStream("u1", &fakeTransport{}, StreamOptions{})
	require.NotPanics(t, func() {
		s.Close()
		s.Close()
	})
}

func TestStream_ServeEndsOnWriteFailure(t *testing.T) {
	req := require.New(t)
	tr := &fakeTransport{failWrites: true}
	s := NewStream("u1", tr, StreamOptions{Heartbeat: time.Hour})
	req.True(s.Write([]byte("x")))

	err := s.Serve(context.Background())
	req.Error(err)
	req.True(tr.closed.Load())
	<-s.Done()
}

func TestStream_ServeEndsOnClose(t *testing.T) {
	s := NewStream("u1", &fakeTransport{}, StreamOptions{Heartbeat: time.Hour})
	done := make(chan error, 1)
	go func() { done <- s.Serve(context.Background()) }()

	s.Close()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after Close")
	}
}
