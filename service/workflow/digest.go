package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"PingUp/logger"
	"PingUp/module/message/model"
)

type unseenCounter interface {
	UnseenByReceiver(ctx context.Context) ([]model.UnseenCount, error)
}

// Digest submits one EventUnseenDigest per receiver with unseen messages,
// once a day at Hour in Location.
type Digest struct {
	store    unseenCounter
	sub      Submitter
	hour     int
	loc      *time.Location
	now      func() time.Time
	log      *zap.Logger
	runDelay func(d time.Duration) <-chan time.Time
}

func NewDigest(store unseenCounter, sub Submitter, hour int, loc *time.Location) *Digest {
	if loc == nil {
		loc = time.UTC
	}
	return &Digest{
		store:    store,
		sub:      sub,
		hour:     hour,
		loc:      loc,
		now:      time.Now,
		log:      logger.Named("digest"),
		runDelay: time.After,
	}
}

// NextRun returns the next occurrence of hour:00 in loc strictly after now.
func NextRun(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, 0, 0, 0, loc)
	}
	return next
}

// Run blocks until ctx ends.
func (d *Digest) Run(ctx context.Context) {
	for {
		next := NextRun(d.now(), d.hour, d.loc)
		d.log.Info("next digest scheduled", zap.Time("at", next))
		select {
		case <-ctx.Done():
			return
		case <-d.runDelay(next.Sub(d.now())):
		}
		if n, err := d.RunOnce(ctx); err != nil {
			d.log.Error("digest run failed", zap.Error(err))
		} else {
			d.log.Info("digest run finished", zap.Int("receivers", n))
		}
	}
}

// RunOnce submits the digest for every receiver and returns how many events were accepted.
// A failed submission is logged and does not stop the others.
func (d *Digest) RunOnce(ctx context.Context) (int, error) {
	counts, err := d.store.UnseenByReceiver(ctx)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, c := range counts {
		if c.Count <= 0 {
			continue
		}
		evt := NewEvent(EventUnseenDigest, c.ToUserID, map[string]any{
			"user_id": c.ToUserID,
			"count":   c.Count,
		})
		if err := d.sub.Submit(ctx, evt); err != nil {
			d.log.Warn("digest submit failed", zap.String("user", c.ToUserID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}
