//go:build !(rp2040 || rp2350)

package bridge

import (
	"context"
	"io"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"inputcode-go/errcode"
	"inputcode-go/types"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
	defaultMQTTTopic   = "inputs/events"
)

// mqttTransport publishes one event line per MQTT message.
type mqttTransport struct {
	broker string
	topic  string
}

func init() {
	RegisterTransport("mqtt", func(cfg types.BridgeConfig) (Transport, error) {
		if cfg.Broker == "" {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "bridge.mqtt", Msg: "broker URL required"}
		}
		topic := cfg.Topic
		if topic == "" {
			topic = defaultMQTTTopic
		}
		return &mqttTransport{broker: cfg.Broker, topic: topic}, nil
	})
}

func (t *mqttTransport) String() string { return "mqtt:" + t.broker }

func (t *mqttTransport) Open(ctx context.Context) (io.WriteCloser, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(t.broker).
		SetClientID("input-bridge").
		SetAutoReconnect(true).
		SetConnectRetry(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		client.Disconnect(0)
		return nil, &errcode.E{C: errcode.LinkFailed, Op: "bridge.mqtt", Msg: "connect timeout"}
	}
	if err := token.Error(); err != nil {
		return nil, &errcode.E{C: errcode.LinkFailed, Op: "bridge.mqtt", Err: err}
	}
	return &mqttLink{client: client, topic: t.topic}, nil
}

type mqttLink struct {
	client mqtt.Client
	topic  string
}

func (l *mqttLink) Write(p []byte) (int, error) {
	token := l.client.Publish(l.topic, 1, false, p)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return 0, &errcode.E{C: errcode.LinkFailed, Op: "bridge.mqtt", Msg: "publish timeout"}
	}
	if err := token.Error(); err != nil {
		return 0, &errcode.E{C: errcode.LinkFailed, Op: "bridge.mqtt", Err: err}
	}
	return len(p), nil
}

func (l *mqttLink) Close() error {
	l.client.Disconnect(250)
	return nil
}
