package workflow

import (
	"context"

	"PingUp/tools/errs"
)

type jsonSender interface {
	SendJSON(topic, key string, v any) (int32, int64, error)
}

// KafkaSubmitter writes events to one topic consumed by the workflow runtime.
type KafkaSubmitter struct {
	p     jsonSender
	topic string
}

func NewKafkaSubmitter(p jsonSender, topic string) *KafkaSubmitter {
	return &KafkaSubmitter{p: p, topic: topic}
}

func (s *KafkaSubmitter) Submit(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := s.p.SendJSON(s.topic, evt.Key, evt)
	return errs.WrapMsg(err, "submit workflow event", "name", evt.Name)
}
