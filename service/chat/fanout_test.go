package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"PingUp/module/message/model"
)

func TestDispatcher_NoChannels(t *testing.T) {
	d := NewDispatcher(NewRegistry())
	require.NotPanics(t, func() {
		d.Publish(context.Background(), "nobody", SeenEvent("u2", []string{"m1"}))
	})
	require.Zero(t, d.Deliver("nobody", []byte("{}")))
}

func TestDispatcher_AllChannelsReceive(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	d := NewDispatcher(reg)

	// Given a user with two open channels and another user with one
	t1, t2, other := &fakeTransport{}, &fakeTransport{}, &fakeTransport{}
	s1 := NewStream("r", t1, StreamOptions{Heartbeat: time.Hour})
	s2 := NewStream("r", t2, StreamOptions{Heartbeat: time.Hour})
	s3 := NewStream("x", other, StreamOptions{Heartbeat: time.Hour})
	for _, s := range []*Stream{s1, s2, s3} {
		reg.Register(s.UserID(), s)
		defer serve(t, s)()
	}

	// When publishing a new message to r
	m := &model.Message{ID: "m1", FromUserID: "s", ToUserID: "r", Text: "hi", MessageType: model.TypeText}
	d.Publish(context.Background(), "r", NewMessageEvent(m))

	// Then both of r's channels get the same frame and x gets nothing
	for _, tr := range []*fakeTransport{t1, t2} {
		req.Eventually(func() bool { return len(tr.Events()) == 1 }, time.Second, 5*time.Millisecond)
		var evt Event
		req.NoError(json.Unmarshal([]byte(tr.Events()[0]), &evt))
		req.Equal(EventNewMessage, evt.Type)
		req.Equal("hi", evt.Message.Text)
		req.False(evt.Message.Seen)
	}
	req.Empty(other.Events())
}

func TestDispatcher_ClosedChannelDoesNotAbortFanout(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	d := NewDispatcher(reg)

	dead := NewStream("r", &fakeTransport{}, StreamOptions{})
	dead.Close()
	liveT := &fakeTransport{}
	live := NewStream("r", liveT, StreamOptions{Heartbeat: time.Hour})
	reg.Register("r", dead)
	reg.Register("r", live)
	defer serve(t, live)()

	req.Equal(1, d.Deliver("r", []byte(`{"type":"DELETE"}`)))
	req.Eventually(func() bool { return len(liveT.Events()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestEvent_Encode(t *testing.T) {
	req := require.New(t)

	b, err := SeenEvent("r", []string{"1", "2"}).Encode()
	req.NoError(err)
	req.JSONEq(`{"type":"SEEN","from_user_id":"r","message_ids":["1","2"]}`, string(b))

	b, err = DeleteEvent("m1", "s").Encode()
	req.NoError(err)
	req.JSONEq(`{"type":"DELETE","message_id":"m1","from_user_id":"s"}`, string(b))

	b, err = ConnectedEvent("u", "c").Encode()
	req.NoError(err)
	req.JSONEq(`{"type":"CONNECTED","user_id":"u","channel_id":"c"}`, string(b))
}
