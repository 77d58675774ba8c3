package kafka

import (
	"encoding/json"

	"github.com/Shopify/sarama"
	"go.uber.org/zap"

	"PingUp/logger"
	"PingUp/tools/errs"
)

// Producer 同步生产者，发送 JSON 负载。
type Producer struct {
	sp  sarama.SyncProducer
	log *zap.Logger
}

func NewSyncProducer(c Config) (*Producer, error) {
	sp, err := sarama.NewSyncProducer(c.Brokers, BuildBaseConfig(c))
	if err != nil {
		return nil, errs.WrapMsg(err, "new sync producer", "brokers", c.Brokers)
	}
	return NewProducer(sp), nil
}

// NewProducer wraps an existing SyncProducer; tests pass sarama/mocks here.
func NewProducer(sp sarama.SyncProducer) *Producer {
	return &Producer{sp: sp, log: logger.Named("kafka")}
}

func (p *Producer) SendJSON(topic, key string, v any) (partition int32, offset int64, err error) {
	b, err := json.Marshal(v)
	if err != nil {
		return 0, 0, errs.WrapMsg(err, "marshal kafka payload")
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(b),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}
	partition, offset, err = p.sp.SendMessage(msg)
	if err != nil {
		return 0, 0, errs.WrapMsg(err, "kafka send", "topic", topic)
	}
	p.log.Debug("sent", zap.String("topic", topic), zap.String("key", key), zap.Int32("partition", partition), zap.Int64("offset", offset))
	return partition, offset, nil
}

func (p *Producer) Close() error { return p.sp.Close() }
