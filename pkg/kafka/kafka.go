package kafka

import (
	ckafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/gigpass/gp-checkout/config"
)

func NewProducer() *ckafka.Producer {
	c := config.Get()

	producer, err := ckafka.NewProducer(&ckafka.ConfigMap{
		"bootstrap.servers": c.Kafka.BootstrapServers,
		"client.id":         c.Application.Name,
		"acks":              "all",
	})
	if err != nil {
		panic(err)
	}

	return producer
}
