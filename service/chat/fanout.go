//go:generate go run go.uber.org/mock/mockgen -source=fanout.go -destination=../../mocks/mock_publisher.go -package=mocks
package chat

import (
	"context"

	"go.uber.org/zap"

	"PingUp/logger"
)

// Publisher delivers an event to every open channel of a user. Delivery is
// best effort: it never fails the caller and never waits for the client.
type Publisher interface {
	Publish(ctx context.Context, userID string, evt Event)
}

// Dispatcher is the in-process Publisher over a Registry.
type Dispatcher struct {
	reg *Registry
	log *zap.Logger
}

func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{reg: reg, log: logger.Named("fanout")}
}

func (d *Dispatcher) Registry() *Registry { return d.reg }

func (d *Dispatcher) Publish(ctx context.Context, userID string, evt Event) {
	payload, err := evt.Encode()
	if err != nil {
		d.log.Error("encode event", zap.String("type", string(evt.Type)), zap.Error(err))
		return
	}
	d.Deliver(userID, payload)
}

// Deliver writes an already encoded event to the user's channels and returns
// how many accepted it.
func (d *Dispatcher) Deliver(userID string, payload []byte) int {
	chans := d.reg.ChannelsFor(userID)
	if len(chans) == 0 {
		return 0
	}
	n := 0
	for _, ch := range chans {
		if ch.Write(payload) {
			n++
			continue
		}
		d.log.Debug("channel rejected event", zap.String("user", userID), zap.String("channel", ch.ID()))
	}
	d.log.Debug("event delivered", zap.String("user", userID), zap.Int("channels", len(chans)), zap.Int("accepted", n))
	return n
}
