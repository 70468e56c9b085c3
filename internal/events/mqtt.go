package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jengzang/measurement-map-go/internal/config"
)

const publishTimeout = 5 * time.Second

// MQTTPublisher publishes job events to an MQTT broker, QoS 1, retained so
// late subscribers see the final state.
type MQTTPublisher struct {
	client    mqtt.Client
	logger    *slog.Logger
	broker    string
	mu        sync.RWMutex
	connected bool
}

// NewMQTTPublisher configures a client for cfg.MQTTBroker. Call Connect before publishing.
func NewMQTTPublisher(cfg *config.Config, logger *slog.Logger) *MQTTPublisher {
	p := &MQTTPublisher{
		logger: logger,
		broker: fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.broker)
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		logger.Info("mqtt connected", "broker", p.broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

// Connect waits for the first broker connection or ctx cancellation
func (p *MQTTPublisher) Connect(ctx context.Context) error {
	if p.IsConnected() {
		return nil
	}

	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			p.client.Disconnect(0)
			return ctx.Err()
		default:
		}
	}
}

// PublishJob publishes e on maps/{jobID}/status
func (p *MQTTPublisher) PublishJob(ctx context.Context, e JobEvent) error {
	if !p.IsConnected() {
		return ErrNotConnected
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal job event: %w", err)
	}

	topic := Topic(e.JobID)
	token := p.client.Publish(topic, 1, true, data)

	select {
	case <-token.Done():
	case <-time.After(publishTimeout):
		return fmt.Errorf("publish timeout for topic %s", topic)
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		p.logger.Error("failed to publish job event", "topic", topic, "error", err)
		return fmt.Errorf("publish job event: %w", err)
	}

	p.logger.Debug("published job event", "topic", topic, "status", e.Status)
	return nil
}

// IsConnected reports whether the broker connection is up
func (p *MQTTPublisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Close disconnects from the broker. Safe to call more than once.
func (p *MQTTPublisher) Close() {
	if p.client != nil {
		p.client.Disconnect(250)
	}
	p.setConnected(false)
}

func (p *MQTTPublisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}
