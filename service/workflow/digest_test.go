package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"PingUp/mocks"
	"PingUp/module/message/model"
	"PingUp/module/message/store"
	"PingUp/service/workflow"
)

func TestNextRun(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	t.Run("should schedule later today before the hour", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 8, 30, 0, 0, ny)
		require.Equal(t, time.Date(2025, 6, 1, 9, 0, 0, 0, ny), workflow.NextRun(now, 9, ny))
	})

	t.Run("should schedule tomorrow at or after the hour", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 9, 0, 0, 0, ny)
		require.Equal(t, time.Date(2025, 6, 2, 9, 0, 0, 0, ny), workflow.NextRun(now, 9, ny))
	})

	t.Run("should honour the zone of the schedule", func(t *testing.T) {
		// 14:00 UTC is 10:00 in New York during DST
		now := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
		next := workflow.NextRun(now, 9, ny)
		require.Equal(t, time.Date(2025, 6, 2, 13, 0, 0, 0, time.UTC), next.UTC())
	})
}

func seedUnseen(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	for i, pair := range [][2]string{{"a", "b"}, {"c", "b"}, {"b", "a"}} {
		require.NoError(t, s.Create(ctx, &model.Message{
			ID: string(rune('1' + i)), FromUserID: pair[0], ToUserID: pair[1],
			Text: "x", MessageType: model.TypeText, CreatedAt: model.Now(),
		}))
	}
}

func TestDigest_RunOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("should submit one event per receiver", func(t *testing.T) {
		req := require.New(t)
		s := store.NewMemory()
		seedUnseen(t, s)
		sub := mocks.NewMockSubmitter(ctrl)

		var got []workflow.Event
		sub.EXPECT().Submit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, evt workflow.Event) error {
				got = append(got, evt)
				return nil
			}).
			Times(2)

		n, err := workflow.NewDigest(s, sub, 9, time.UTC).RunOnce(context.Background())
		req.NoError(err)
		req.Equal(2, n)
		req.Equal(workflow.EventUnseenDigest, got[0].Name)
		req.Equal("a", got[0].Data["user_id"])
		req.Equal(int64(1), got[0].Data["count"])
		req.Equal("b", got[1].Key)
		req.Equal(int64(2), got[1].Data["count"])
	})

	t.Run("should continue past a failed submission", func(t *testing.T) {
		req := require.New(t)
		s := store.NewMemory()
		seedUnseen(t, s)
		sub := mocks.NewMockSubmitter(ctrl)
		gomock.InOrder(
			sub.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(errors.New("broker down")),
			sub.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil),
		)

		n, err := workflow.NewDigest(s, sub, 9, time.UTC).RunOnce(context.Background())
		req.NoError(err)
		req.Equal(1, n)
	})

	t.Run("should do nothing when everything is seen", func(t *testing.T) {
		sub := mocks.NewMockSubmitter(ctrl)
		sub.EXPECT().Submit(gomock.Any(), gomock.Any()).Times(0)

		n, err := workflow.NewDigest(store.NewMemory(), sub, 9, time.UTC).RunOnce(context.Background())
		require.NoError(t, err)
		require.Zero(t, n)
	})
}

type fakeSender struct {
	topic, key string
	v          any
	err        error
}

func (f *fakeSender) SendJSON(topic, key string, v any) (int32, int64, error) {
	f.topic, f.key, f.v = topic, key, v
	return 0, 1, f.err
}

func TestKafkaSubmitter(t *testing.T) {
	req := require.New(t)
	fs := &fakeSender{}
	s := workflow.NewKafkaSubmitter(fs, "pingup.workflow")

	evt := workflow.NewEvent(workflow.EventUnseenDigest, "u1", map[string]any{"count": 3})
	req.NoError(s.Submit(context.Background(), evt))
	req.Equal("pingup.workflow", fs.topic)
	req.Equal("u1", fs.key)
	req.Equal(evt, fs.v)
	req.NotEmpty(evt.ID)

	fs.err = errors.New("nope")
	req.Error(s.Submit(context.Background(), evt))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req.ErrorIs(s.Submit(ctx, evt), context.Canceled)
}

func TestLogSubmitter(t *testing.T) {
	require.NoError(t, workflow.NewLogSubmitter().Submit(context.Background(), workflow.NewEvent("x", "", nil)))
}
