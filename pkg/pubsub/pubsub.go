package pubsub

import (
	"context"

	ckafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, key string, headers map[string]string, value []byte) error
	Close()
}

type confluentKafkaPublisher struct {
	logger   *logrus.Logger
	producer *ckafka.Producer
}

func PublisherFromConfluentKafkaProducer(logger *logrus.Logger, producer *ckafka.Producer) Publisher {
	p := &confluentKafkaPublisher{
		logger:   logger,
		producer: producer,
	}

	go p.drainEvents()

	return p
}

// drainEvents consumes delivery reports so the producer's event
// channel never backs up.
func (p *confluentKafkaPublisher) drainEvents() {
	for e := range p.producer.Events() {
		if m, ok := e.(*ckafka.Message); ok && m.TopicPartition.Error != nil {
			p.logger.WithError(m.TopicPartition.Error).WithField("topic", *m.TopicPartition.Topic).Error("message delivery failed")
		}
	}
}

// Publish implements Publisher.
func (p *confluentKafkaPublisher) Publish(ctx context.Context, topic string, key string, headers map[string]string, value []byte) error {
	kafkaHeaders := make([]ckafka.Header, 0, len(headers))
	for k, v := range headers {
		kafkaHeaders = append(kafkaHeaders, ckafka.Header{Key: k, Value: []byte(v)})
	}

	message := &ckafka.Message{
		TopicPartition: ckafka.TopicPartition{
			Topic:     &topic,
			Partition: ckafka.PartitionAny,
		},
		Key:     []byte(key),
		Headers: kafkaHeaders,
		Value:   value,
	}

	if err := p.producer.Produce(message, nil); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithField("topic", topic).Error("an error occurred while publishing message")
		return err
	}

	return nil
}

// Close implements Publisher.
func (p *confluentKafkaPublisher) Close() {
	p.producer.Flush(5000)
	p.producer.Close()
}
