package queue

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"
)

const kafkaFlushTimeoutMs = 5000

var _ ChangePublisher = (*KafkaPublisher)(nil)

// KafkaPublisher writes project changes to a kafka topic keyed by project id,
// so the changes of one project stay ordered within a partition.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	done     chan struct{}
}

func NewKafkaPublisher(brokers, topic string) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	p := &KafkaPublisher{producer: producer, topic: topic, done: make(chan struct{})}
	go p.reportDeliveries()

	return p, nil
}

func (p *KafkaPublisher) PublishChange(ctx context.Context, change *ProjectChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := change.MarshalBinary()
	if err != nil {
		return err
	}

	return p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(change.ProjectID),
		Value:          value,
		Headers:        []kafka.Header{{Key: "kind", Value: []byte(change.Kind)}},
	}, nil)
}

func (p *KafkaPublisher) Close() error {
	if remaining := p.producer.Flush(kafkaFlushTimeoutMs); remaining > 0 {
		logrus.Warnf("%d project changes were not delivered", remaining)
	}
	p.producer.Close()
	<-p.done
	return nil
}

func (p *KafkaPublisher) reportDeliveries() {
	defer close(p.done)
	for e := range p.producer.Events() {
		if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
			logrus.Errorf("project change delivery failed: %v", m.TopicPartition.Error)
		}
	}
}
