package broker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type MQTTOptions struct {
	Broker   string
	ClientID string
	// Topic is the subscription filter, e.g. lora/+/uplink.
	Topic string
	// PublishTopic defaults to Topic with wildcards replaced by ClientID.
	PublishTopic string
	QoS          byte
}

// MQTTQueue reads uplinks forwarded by a LoRa gateway bridge.
type MQTTQueue struct {
	client mqtt.Client
	opts   MQTTOptions
}

func NewMQTTQueue(o MQTTOptions) (*MQTTQueue, error) {
	if o.PublishTopic == "" {
		o.PublishTopic = PublishTopicFor(o.Topic, o.ClientID)
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			slog.Warn("mqtt connection lost", "broker", o.Broker, "error", err)
		})

	client := mqtt.NewClient(clientOpts)
	tok := client.Connect()
	if !tok.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", o.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", o.Broker, err)
	}

	return &MQTTQueue{client: client, opts: o}, nil
}

// PublishTopicFor turns a subscription filter into a concrete topic.
func PublishTopicFor(filter, segment string) string {
	parts := strings.Split(filter, "/")
	out := parts[:0]
	for _, p := range parts {
		switch p {
		case "+":
			out = append(out, segment)
		case "#":
		default:
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}

func (q *MQTTQueue) Publish(ctx context.Context, data []byte) error {
	tok := q.client.Publish(q.opts.PublishTopic, q.opts.QoS, false, data)
	return waitToken(ctx, tok)
}

func (q *MQTTQueue) Consume(ctx context.Context, handler func([]byte) error) error {
	tok := q.client.Subscribe(q.opts.Topic, q.opts.QoS, func(_ mqtt.Client, m mqtt.Message) {
		if err := handler(m.Payload()); err != nil {
			slog.Error("mqtt message handling failed", "topic", m.Topic(), "error", err)
		}
	})
	if err := waitToken(ctx, tok); err != nil {
		return err
	}

	<-ctx.Done()
	q.client.Unsubscribe(q.opts.Topic).WaitTimeout(2 * time.Second)
	return ctx.Err()
}

func (q *MQTTQueue) Close() error {
	q.client.Disconnect(250)
	return nil
}

func waitToken(ctx context.Context, tok mqtt.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ MessageQueue = (*MQTTQueue)(nil)
