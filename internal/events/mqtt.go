package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/hasanawais/pica/internal/core"
)

// MQTT publishes one JSON record per event to a broker topic: this
// emulator's MQTT role is publisher of world events, not consumer of
// mesh traffic.
type MQTT struct {
	client mqtt.Client
	topic  string
	qos    byte
	log    *zap.Logger
}

// MQTTOptions configures the MQTT sink.
type MQTTOptions struct {
	Broker   string
	Topic    string
	Username string
	Password string
	ClientID string
}

// NewMQTT connects to opts.Broker and returns a sink ready to Publish.
func NewMQTT(opts MQTTOptions, log *zap.Logger) (*MQTT, error) {
	clientID := opts.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("pica-%d", time.Now().UnixNano())
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	client := mqtt.NewClient(clientOpts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("events: mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("events: mqtt connect: %w", err)
	}

	return &MQTT{client: client, topic: opts.Topic, qos: 1, log: log}, nil
}

// Publish implements Sink.
func (m *MQTT) Publish(_ context.Context, ev core.Event) error {
	data, err := json.Marshal(newRecord(ev, time.Now()))
	if err != nil {
		return fmt.Errorf("events: marshal record: %w", err)
	}
	token := m.client.Publish(m.topic, m.qos, false, data)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("events: mqtt publish: %w", token.Error())
	}
	return nil
}

// Close implements Sink.
func (m *MQTT) Close() error {
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(1000)
	}
	return nil
}

// Name implements Sink.
func (m *MQTT) Name() string { return fmt.Sprintf("mqtt:%s", m.topic) }
