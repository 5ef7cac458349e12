// Package mqtt forwards accepted lines to an MQTT broker.
package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"textwatch/internal/config"
	"textwatch/internal/dto"
	"textwatch/internal/logger"

	paho "github.com/eclipse/paho.mqtt.golang"
	jsoniter "github.com/json-iterator/go"
)

const (
	qos            = 1
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Publisher publishes every accepted line as JSON to <topic>/<session>.
type Publisher struct {
	client    paho.Client
	topic     string
	published atomic.Uint64
	logger    *logger.Logger
}

// Connect creates a client for config.MQTTBroker and connects with auto-reconnect.
func Connect(config *config.Config, logger *logger.Logger) (*Publisher, error) {
	broker := config.MQTTBroker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(config.MQTTClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c paho.Client) {
		logger.Info("📨 MQTT connection established (%s)", broker)
	}
	opts.OnConnectionLost = func(c paho.Client, err error) {
		logger.Warning("MQTT connection lost, will auto-reconnect: %v", err)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}

	return NewPublisher(client, config.MQTTTopic, logger), nil
}

// NewPublisher wraps an existing client.
func NewPublisher(client paho.Client, topic string, logger *logger.Logger) *Publisher {
	return &Publisher{
		client: client,
		topic:  strings.TrimSuffix(topic, "/"),
		logger: logger,
	}
}

// Emit implements the session sink.
func (p *Publisher) Emit(ctx context.Context, event dto.LineEvent) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("mqtt not connected")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode line event: %w", err)
	}

	topic := p.topic + "/" + event.SessionID
	token := p.client.Publish(topic, qos, false, payload)

	select {
	case <-token.Done():
	case <-time.After(publishTimeout):
		return fmt.Errorf("publish timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	p.published.Add(1)
	return nil
}

// Published returns the number of lines delivered to the broker.
func (p *Publisher) Published() uint64 {
	return p.published.Load()
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
