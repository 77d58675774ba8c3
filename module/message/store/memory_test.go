package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"PingUp/module/message/model"
	"PingUp/tools/errs"
)

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func msg(id, from, to string, offset time.Duration) *model.Message {
	return &model.Message{
		ID:          id,
		FromUserID:  from,
		ToUserID:    to,
		Text:        "t-" + id,
		MessageType: model.TypeText,
		CreatedAt:   base.Add(offset),
		UpdatedAt:   base.Add(offset),
	}
}

func seed(t *testing.T, s Store, list ...*model.Message) {
	t.Helper()
	for _, m := range list {
		require.NoError(t, s.Create(context.Background(), m))
	}
}

func TestMemory_CreateGet(t *testing.T) {
	req := require.New(t)
	s := NewMemory()
	ctx := context.Background()

	seed(t, s, msg("1", "a", "b", 0))

	got, err := s.Get(ctx, "1")
	req.NoError(err)
	req.Equal("t-1", got.Text)
	req.False(got.Seen)

	// stored copies are isolated from callers
	got.Text = "mutated"
	again, _ := s.Get(ctx, "1")
	req.Equal("t-1", again.Text)

	_, err = s.Get(ctx, "nope")
	req.True(errors.Is(err, errs.ErrRecordNotFound))

	req.Error(s.Create(ctx, msg("1", "a", "b", 0)))
}

func TestMemory_Conversation(t *testing.T) {
	req := require.New(t)
	s := NewMemory()
	ctx := context.Background()

	// Given messages in both directions, one with a createdAt tie, and an unrelated one
	seed(t, s,
		msg("3", "b", "a", 2*time.Second),
		msg("1", "a", "b", 0),
		msg("2", "a", "b", 0),
		msg("9", "a", "c", time.Second),
	)

	// When fetching the conversation
	list, err := s.Conversation(ctx, "a", "b", 0)
	req.NoError(err)

	// Then only a<->b messages, ascending with the id tie-break
	req.Equal([]string{"1", "2", "3"}, ids(list))

	limited, err := s.Conversation(ctx, "b", "a", 2)
	req.NoError(err)
	req.Equal([]string{"2", "3"}, ids(limited))
}

func TestMemory_MarkSeen(t *testing.T) {
	req := require.New(t)
	s := NewMemory()
	ctx := context.Background()

	seed(t, s,
		msg("1", "b", "a", 0),
		msg("2", "a", "b", time.Second),
		msg("3", "b", "a", 2*time.Second),
		msg("4", "c", "a", 3*time.Second),
	)

	changed, err := s.MarkSeen(ctx, "a", "b")
	req.NoError(err)
	req.Equal([]string{"1", "3"}, changed)

	// only messages from b to a flipped
	m2, _ := s.Get(ctx, "2")
	req.False(m2.Seen)
	m4, _ := s.Get(ctx, "4")
	req.False(m4.Seen)

	again, err := s.MarkSeen(ctx, "a", "b")
	req.NoError(err)
	req.Empty(again)
}

func TestMemory_MarkSeenConcurrentReaders(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		seed(t, s, msg(fmt.Sprintf("%03d", i), "b", "a", time.Duration(i)*time.Millisecond))
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total []string
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			changed, err := s.MarkSeen(ctx, "a", "b")
			require.NoError(t, err)
			mu.Lock()
			total = append(total, changed...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	// every id is reported by exactly one reader
	require.Len(t, total, 50)
	require.ElementsMatch(t, lo.Uniq(total), total)
}

func TestMemory_Recent(t *testing.T) {
	req := require.New(t)
	s := NewMemory()
	ctx := context.Background()

	seed(t, s,
		msg("1", "a", "b", 0),
		msg("2", "b", "a", time.Second),
		msg("3", "c", "a", 500*time.Millisecond),
		msg("4", "a", "d", time.Second),
		msg("5", "x", "y", 5*time.Second),
	)

	list, err := s.Recent(ctx, "a")
	req.NoError(err)
	// newest per counterpart, descending by (createdAt, _id)
	req.Equal([]string{"4", "2", "3"}, ids(list))

	none, err := s.Recent(ctx, "nobody")
	req.NoError(err)
	req.Empty(none)
}

func TestMemory_Delete(t *testing.T) {
	req := require.New(t)
	s := NewMemory()
	ctx := context.Background()
	seed(t, s, msg("1", "a", "b", 0), msg("2", "a", "b", time.Second))

	req.NoError(s.Delete(ctx, "1"))
	req.True(errors.Is(s.Delete(ctx, "1"), errs.ErrRecordNotFound))

	list, _ := s.Conversation(ctx, "a", "b", 0)
	req.Equal([]string{"2"}, ids(list))
}

func TestMemory_UnseenByReceiver(t *testing.T) {
	req := require.New(t)
	s := NewMemory()
	ctx := context.Background()
	seed(t, s,
		msg("1", "a", "b", 0),
		msg("2", "c", "b", 0),
		msg("3", "b", "a", 0),
	)
	_, err := s.MarkSeen(ctx, "a", "b")
	req.NoError(err)

	counts, err := s.UnseenByReceiver(ctx)
	req.NoError(err)
	req.Equal([]model.UnseenCount{{ToUserID: "b", Count: 2}}, counts)
}

func ids(list []*model.Message) []string {
	out := make([]string, 0, len(list))
	for _, m := range list {
		out = append(out, m.ID)
	}
	return out
}
