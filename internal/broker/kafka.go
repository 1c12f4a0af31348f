package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

type KafkaQueue struct {
	producer *kafka.Producer
	consumer *kafka.Consumer
	topic    string
}

func NewKafkaQueue(brokers, topic, groupID string) (*KafkaQueue, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
		"retries":           3,
		"batch.size":        16384,
		"linger.ms":         5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"group.id":          groupID,
		"auto.offset.reset": "latest",
	})
	if err != nil {
		producer.Close()
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	return &KafkaQueue{
		producer: producer,
		consumer: consumer,
		topic:    topic,
	}, nil
}

func (k *KafkaQueue) Publish(ctx context.Context, data []byte) error {
	deliveryChan := make(chan kafka.Event, 1)

	err := k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &k.topic,
			Partition: kafka.PartitionAny,
		},
		Value: data,
	}, deliveryChan)
	if err != nil {
		return err
	}

	select {
	case e := <-deliveryChan:
		if msg, ok := e.(*kafka.Message); ok && msg.TopicPartition.Error != nil {
			return msg.TopicPartition.Error
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (k *KafkaQueue) Consume(ctx context.Context, handler func([]byte) error) error {
	if err := k.consumer.Subscribe(k.topic, nil); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := k.consumer.ReadMessage(100 * time.Millisecond)
		if err != nil {
			var kerr kafka.Error
			if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
				continue
			}
			return err
		}

		if err := handler(msg.Value); err != nil {
			slog.Error("kafka message handling failed", "topic", k.topic, "offset", msg.TopicPartition.Offset.String(), "error", err)
		}
	}
}

func (k *KafkaQueue) Close() error {
	k.producer.Flush(5000)
	k.producer.Close()
	return k.consumer.Close()
}

var _ MessageQueue = (*KafkaQueue)(nil)
