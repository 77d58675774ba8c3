package chat

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"PingUp/logger"
)

const (
	relayBaseBackoff = 200 * time.Millisecond
	relayMaxBackoff  = 5 * time.Second
)

// Bus carries encoded events between instances, one topic per user.
type Bus interface {
	Publish(ctx context.Context, userID string, payload []byte) error
	// Run subscribes to every user topic, calls ready once the subscription is
	// confirmed and then deliver for each event until ctx ends. ready and
	// deliver are called from Run's goroutine. A non-nil error means the
	// subscription failed or was lost.
	Run(ctx context.Context, ready func(), deliver func(userID string, payload []byte)) error
	Close() error
}

// Relay publishes through a Bus; every instance's Run feeds the local Dispatcher,
// so a user's channels receive the event whichever instance holds them.
// While this instance has no live subscription, events are also delivered
// locally, since the bus would not bring them back.
type Relay struct {
	bus        Bus
	local      *Dispatcher
	log        *zap.Logger
	subscribed atomic.Bool

	baseBackoff time.Duration
	maxBackoff  time.Duration
}

func NewRelay(bus Bus, local *Dispatcher) *Relay {
	return &Relay{
		bus:         bus,
		local:       local,
		log:         logger.Named("relay"),
		baseBackoff: relayBaseBackoff,
		maxBackoff:  relayMaxBackoff,
	}
}

// Subscribed reports whether the bus subscription is live.
func (r *Relay) Subscribed() bool { return r.subscribed.Load() }

func (r *Relay) Publish(ctx context.Context, userID string, evt Event) {
	payload, err := evt.Encode()
	if err != nil {
		r.log.Error("encode event", zap.String("type", string(evt.Type)), zap.Error(err))
		return
	}
	live := r.subscribed.Load()
	if !live {
		r.local.Deliver(userID, payload)
	}
	if err := r.bus.Publish(ctx, userID, payload); err != nil {
		r.log.Warn("bus publish failed", zap.String("user", userID), zap.Bool("subscribed", live), zap.Error(err))
		if live {
			// keep same-instance channels informed while the bus is down
			r.local.Deliver(userID, payload)
		}
	}
}

// Run keeps the bus subscription alive until ctx ends, resubscribing with
// backoff whenever it fails.
func (r *Relay) Run(ctx context.Context) error {
	attempt := 0
	for {
		err := r.bus.Run(ctx,
			func() {
				r.subscribed.Store(true)
				attempt = 0
				r.log.Info("bus subscribed")
			},
			func(userID string, payload []byte) {
				r.local.Deliver(userID, payload)
			})
		r.subscribed.Store(false)
		if ctx.Err() != nil {
			return nil
		}

		wait := r.backoff(attempt)
		attempt++
		r.log.Warn("bus subscription lost, retrying", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

// backoff 指数退避 + 0~20% 抖动
func (r *Relay) backoff(attempt int) time.Duration {
	d := r.baseBackoff
	for i := 0; i < attempt && d < r.maxBackoff; i++ {
		d *= 2
	}
	if d > r.maxBackoff {
		d = r.maxBackoff
	}
	return d + time.Duration(rand.Int63n(int64(d/5)+1))
}

func (r *Relay) Close() error { return r.bus.Close() }
