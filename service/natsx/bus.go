package natsx

import (
	"context"
	"strings"

	"PingUp/tools/errs"
)

const DefaultPrefix = "pingup.user"

// UserBus routes events over one subject per user: <prefix>.<userID>.
type UserBus struct {
	cli    *NatsxClient
	prefix string
}

func NewUserBus(cli *NatsxClient, prefix string) *UserBus {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &UserBus{cli: cli, prefix: strings.TrimSuffix(prefix, ".")}
}

func (b *UserBus) Subject(userID string) (string, error) {
	if userID == "" || strings.ContainsAny(userID, ".*> \t\r\n") {
		return "", errs.ErrArgs.WrapMsg("user id is not a valid subject token", "user", userID)
	}
	return b.prefix + "." + userID, nil
}

// UserID reverses Subject; ok is false for subjects outside the prefix.
func (b *UserBus) UserID(subject string) (string, bool) {
	id, ok := strings.CutPrefix(subject, b.prefix+".")
	if !ok || id == "" || strings.Contains(id, ".") {
		return "", false
	}
	return id, true
}

func (b *UserBus) Publish(ctx context.Context, userID string, payload []byte) error {
	subj, err := b.Subject(userID)
	if err != nil {
		return err
	}
	return errs.WrapMsg(b.cli.Publish(subj, payload), "nats publish", "subject", subj)
}

func (b *UserBus) Run(ctx context.Context, ready func(), deliver func(userID string, payload []byte)) error {
	err := b.cli.Subscribe(b.prefix+".*", func(subject string, data []byte) {
		if id, ok := b.UserID(subject); ok {
			deliver(id, data)
		}
	})
	if err != nil {
		return errs.WrapMsg(err, "nats subscribe", "prefix", b.prefix)
	}
	ready()
	<-ctx.Done()
	return nil
}

func (b *UserBus) Close() error { return b.cli.Close() }
