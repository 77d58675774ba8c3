package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"PingUp/tools/errs"
)

func TestChannelKeys(t *testing.T) {
	req := require.New(t)
	b := NewPubSubBus(nil, "pingup:user:")

	req.Equal("pingup:user:u1", channelKey(b.prefix, "u1"))
	req.Equal("pingup:user:*", channelPattern(b.prefix))

	id, ok := b.userID("pingup:user:u1")
	req.True(ok)
	req.Equal("u1", id)

	_, ok = b.userID("pingup:user:")
	req.False(ok)
	_, ok = b.userID("other:u1")
	req.False(ok)
}

func TestPublish_RequiresUser(t *testing.T) {
	b := NewPubSubBus(nil, "")
	err := b.Publish(context.Background(), "", []byte("{}"))
	require.True(t, errors.Is(err, errs.ErrArgs))
}
