package chat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterUnregister(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	// Given two channels for one user
	a := NewStream("u1", &fakeTransport{}, StreamOptions{})
	b := NewStream("u1", &fakeTransport{}, StreamOptions{})
	reg.Register("u1", a)
	reg.Register("u1", b)

	// Then both are listed
	req.Len(reg.ChannelsFor("u1"), 2)
	users, chans := reg.Stats()
	req.Equal(1, users)
	req.Equal(2, chans)

	// When one is removed the other stays
	reg.Unregister("u1", a)
	list := reg.ChannelsFor("u1")
	req.Len(list, 1)
	req.Equal(b.ID(), list[0].ID())

	// When the last one is removed the user entry is pruned
	reg.Unregister("u1", b)
	req.Empty(reg.ChannelsFor("u1"))
	users, chans = reg.Stats()
	req.Zero(users)
	req.Zero(chans)
}

func TestRegistry_UnknownUser(t *testing.T) {
	reg := NewRegistry()
	require.Empty(t, reg.ChannelsFor("ghost"))
	require.NotPanics(t, func() {
		reg.Unregister("ghost", NewStream("ghost", &fakeTransport{}, StreamOptions{}))
	})
}

func TestRegistry_SnapshotIsolation(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	a := NewStream("u1", &fakeTransport{}, StreamOptions{})
	reg.Register("u1", a)

	snap := reg.ChannelsFor("u1")
	reg.Unregister("u1", a)

	// the earlier snapshot is unaffected by later mutation
	req.Len(snap, 1)
}

func TestRegistry_Concurrent(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := NewStream("u1", &fakeTransport{}, StreamOptions{})
			reg.Register("u1", s)
			_ = reg.ChannelsFor("u1")
			reg.Unregister("u1", s)
		}()
	}
	wg.Wait()
	require.Empty(t, reg.ChannelsFor("u1"))
}
