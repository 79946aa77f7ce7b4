package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
)

// Producer publishes message change events keyed by channel, so the events
// of one channel stay ordered within a partition.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewSaramaConfig() *sarama.Config {
	conf := sarama.NewConfig()
	conf.ClientID = "team-chat"
	conf.Producer.Return.Successes = true
	conf.Producer.RequiredAcks = sarama.WaitForLocal
	conf.Producer.Partitioner = sarama.NewHashPartitioner
	conf.Consumer.Offsets.Initial = sarama.OffsetNewest
	conf.Consumer.Return.Errors = true
	return conf
}

func NewProducer(conf config.KafkaConfig) (*Producer, error) {
	producer, err := sarama.NewSyncProducer(conf.Brokers, NewSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("new sync producer: %w", err)
	}
	return newProducer(producer, conf.Topic), nil
}

func newProducer(producer sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: producer, topic: topic}
}

func (p *Producer) Publish(ctx context.Context, event models.MessageEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal message event: %w", err)
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.ChannelID.String()),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("send message event: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
