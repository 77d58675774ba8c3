package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PingUp/service/chat"
	"PingUp/tools/errs"
)

func TestReadEvents(t *testing.T) {
	body := ":\n\n" +
		"data:{\"type\":\"CONNECTED\"}\n\n" +
		"event: message\n" +
		"data: {\"type\":\n" +
		"data: \"SEEN\"}\r\n\r\n" +
		"\n" +
		"data:{\"type\":\"DELETE\"}"

	var got []string
	err := ReadEvents(strings.NewReader(body), func(data []byte) { got = append(got, string(data)) })
	require.Error(t, err)
	require.Equal(t, []string{
		`{"type":"CONNECTED"}`,
		"{\"type\":\n\"SEEN\"}",
		`{"type":"DELETE"}`,
	}, got)
}

func TestStreamDecodesPopulatedSender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "data: {\"type\":\"NEW_MESSAGE\",\"message\":{\"_id\":\"7\",\"from_user_id\":{\"_id\":\"bob\",\"full_name\":\"Bob\"},\"to_user_id\":\"alice\",\"text\":\"hey\",\"message_type\":\"text\",\"seen\":false,\"createdAt\":\"2026-01-02T03:04:05Z\"}}\n\n")
	}))
	defer srv.Close()

	s := NewStream(StreamConfig{BaseURL: srv.URL, UserID: "alice", Token: "tok", MinBackoff: time.Millisecond, MaxBackoff: time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got chat.Event
	_ = s.Run(ctx, func(evt chat.Event) {
		got = evt
		cancel()
	})
	require.Equal(t, chat.EventNewMessage, got.Type)
	require.Equal(t, "bob", got.Message.FromUserID)
	require.Equal(t, "hey", got.Message.Text)
}

func TestStreamReconnects(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/message/sse/alice", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		n := hits.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "data:{\"type\":\"CONNECTED\",\"user_id\":\"alice\",\"channel_id\":\"c%d\"}\n\n", n)
		fmt.Fprint(w, "data:{\"type\":\"NEW_MESSAGE\",\"message\":{\"_id\":\"1\",\"from_user_id\":\"bob\",\"to_user_id\":\"alice\",\"text\":\"hi\",\"message_type\":\"text\",\"seen\":false,\"createdAt\":\"2026-01-02T03:04:05.123Z\",\"updatedAt\":\"2026-01-02T03:04:05.123Z\"}}\n\n")
	}))
	defer srv.Close()

	s := NewStream(StreamConfig{
		BaseURL:    srv.URL,
		UserID:     "alice",
		Token:      "tok",
		MinBackoff: time.Millisecond,
		MaxBackoff: 5 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []chat.Event
	err := s.Run(ctx, func(evt chat.Event) {
		got = append(got, evt)
		// two full connections after the failed one
		if len(got) == 4 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.GreaterOrEqual(t, hits.Load(), int32(3))

	require.Equal(t, chat.EventConnected, got[0].Type)
	require.Equal(t, "c2", got[0].ChannelID)
	require.Equal(t, chat.EventNewMessage, got[1].Type)
	require.Equal(t, "hi", got[1].Message.Text)
	require.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 123e6, time.UTC), got[1].Message.CreatedAt.UTC())
	require.Equal(t, "c3", got[2].ChannelID)
}

func TestStreamStopsOnAuthFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewStream(StreamConfig{BaseURL: srv.URL, UserID: "alice", Token: "bad", MinBackoff: time.Millisecond})
	err := s.Run(context.Background(), func(chat.Event) {})
	require.True(t, errors.Is(err, errs.ErrTokenInvalid))
	require.Equal(t, int32(1), hits.Load())
}

func TestStreamRejectsBadURL(t *testing.T) {
	s := NewStream(StreamConfig{BaseURL: "not a url", UserID: "alice"})
	err := s.Run(context.Background(), func(chat.Event) {})
	require.ErrorIs(t, err, errs.ErrArgs)
}

func TestBackoffBounds(t *testing.T) {
	s := NewStream(StreamConfig{MinBackoff: 100 * time.Millisecond, MaxBackoff: time.Second})
	for attempt := 0; attempt < 10; attempt++ {
		d := s.backoff(attempt)
		require.LessOrEqual(t, d, time.Second)
		require.Greater(t, d, time.Duration(0))
	}
	require.LessOrEqual(t, s.backoff(0), 100*time.Millisecond)
	require.GreaterOrEqual(t, s.backoff(10), 500*time.Millisecond)
}
