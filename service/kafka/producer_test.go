package kafka

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/stretchr/testify/require"
)

func TestBuildBaseConfig(t *testing.T) {
	req := require.New(t)
	cfg := BuildBaseConfig(Config{ProducerCompression: "lz4", KafkaVersion: sarama.V2_1_0_0})

	req.True(cfg.Producer.Return.Successes)
	req.Equal(sarama.WaitForAll, cfg.Producer.RequiredAcks)
	req.Equal(sarama.CompressionLZ4, cfg.Producer.Compression)
	req.Equal(1, cfg.Producer.Retry.Max)
	req.NoError(cfg.Validate())
}

func TestProducer_SendJSON(t *testing.T) {
	req := require.New(t)
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got map[string]any
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got["name"] != "app/unseen-messages.digest" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	p := NewProducer(sp)
	_, _, err := p.SendJSON("pingup.workflow", "u1", map[string]any{"name": "app/unseen-messages.digest"})
	req.NoError(err)
	req.NoError(p.Close())
}

func TestProducer_SendFailure(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducer(sp)
	_, _, err := p.SendJSON("t", "", map[string]string{"a": "b"})
	require.Error(t, err)
	require.True(t, errors.Is(err, sarama.ErrOutOfBrokers))
	require.NoError(t, p.Close())
}
