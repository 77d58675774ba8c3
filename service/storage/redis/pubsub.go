package redis

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"PingUp/logger"
	"PingUp/tools/errs"
)

const DefaultPrefix = "pingup:user"

// key helpers
func channelKey(prefix, userID string) string { return prefix + ":" + userID }
func channelPattern(prefix string) string     { return prefix + ":*" }

// PubSubBus 通过 Redis Pub/Sub 在实例间转发事件，每个用户一个频道。
type PubSubBus struct {
	rdb    redis.UniversalClient
	prefix string
	log    *zap.Logger
}

func NewPubSubBus(rdb redis.UniversalClient, prefix string) *PubSubBus {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &PubSubBus{rdb: rdb, prefix: strings.TrimSuffix(prefix, ":"), log: logger.Named("redis-bus")}
}

func (b *PubSubBus) userID(channel string) (string, bool) {
	id, ok := strings.CutPrefix(channel, b.prefix+":")
	return id, ok && id != ""
}

func (b *PubSubBus) Publish(ctx context.Context, userID string, payload []byte) error {
	if userID == "" {
		return errs.ErrArgs.WrapMsg("user id is required")
	}
	return errs.WrapMsg(b.rdb.Publish(ctx, channelKey(b.prefix, userID), payload).Err(), "redis publish")
}

func (b *PubSubBus) Run(ctx context.Context, ready func(), deliver func(userID string, payload []byte)) error {
	ps := b.rdb.PSubscribe(ctx, channelPattern(b.prefix))
	defer ps.Close()

	// 等待订阅确认，避免启动后早期消息丢失
	if _, err := ps.Receive(ctx); err != nil {
		return errs.WrapMsg(err, "redis psubscribe", "pattern", channelPattern(b.prefix))
	}
	b.log.Info("subscribed", zap.String("pattern", channelPattern(b.prefix)))
	ready()

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return errs.New("redis subscription closed", "pattern", channelPattern(b.prefix))
			}
			if id, ok := b.userID(m.Channel); ok {
				deliver(id, []byte(m.Payload))
			}
		}
	}
}

func (b *PubSubBus) Close() error { return b.rdb.Close() }
