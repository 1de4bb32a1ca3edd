// Package notify announces post changes on an MQTT broker.
//
// Events are published as JSON to "{TopicPrefix}/{type}", for example
// "blog/posts/created".
package notify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/pranavgnr/Pranav-blog/internal/blog"
)

var _ blog.EventSink = (*MQTTPublisher)(nil)

const (
	DefaultTopicPrefix = "blog/posts"
	publishTimeout     = 10 * time.Second
)

type Config struct {
	// Broker is the MQTT broker URL (e.g., "tcp://broker.example.com:1883").
	Broker   string
	Username string
	Password string
	// ClientID is the MQTT client identifier. If empty, a random one is generated.
	ClientID string
	// TopicPrefix defaults to DefaultTopicPrefix.
	TopicPrefix string
	// Logger is the logger to use. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// publisher is the part of paho.Client the publisher needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// MQTTPublisher implements blog.EventSink over MQTT.
type MQTTPublisher struct {
	cfg    Config
	log    *slog.Logger
	mu     sync.Mutex
	client paho.Client
	pub    publisher
}

func New(cfg Config) *MQTTPublisher {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultTopicPrefix
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &MQTTPublisher{
		cfg: cfg,
		log: cfg.Logger.WithGroup("mqtt"),
	}
}

// Start connects to the broker.
func (p *MQTTPublisher) Start(ctx context.Context) error {
	if p.cfg.Broker == "" {
		return errors.New("broker URL is required")
	}
	clientID := p.cfg.ClientID
	if clientID == "" {
		clientID = "blog-" + randomSuffix()
	}

	opts := paho.NewClientOptions().
		AddBroker(p.cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(60 * time.Second).
		SetCleanSession(true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.Warn("connection lost", "err", err)
		})
	if p.cfg.Username != "" {
		opts.SetUsername(p.cfg.Username)
	}
	if p.cfg.Password != "" {
		opts.SetPassword(p.cfg.Password)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if err := waitToken(ctx, token, 30*time.Second); err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}

	p.mu.Lock()
	p.client = client
	p.pub = client
	p.mu.Unlock()
	p.log.Info("connected", "broker", p.cfg.Broker)
	return nil
}

// Stop disconnects from the broker.
func (p *MQTTPublisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Disconnect(1000)
		p.client = nil
	}
	p.pub = nil
}

// Topic returns the topic events of type t are published to.
func (p *MQTTPublisher) Topic(t blog.EventType) string {
	return p.cfg.TopicPrefix + "/" + string(t)
}

// Publish sends event as JSON with QoS 1.
func (p *MQTTPublisher) Publish(ctx context.Context, event blog.Event) error {
	p.mu.Lock()
	pub := p.pub
	p.mu.Unlock()
	if pub == nil {
		return errors.New("not connected")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	token := pub.Publish(p.Topic(event.Type), 1, false, payload)
	if err := waitToken(ctx, token, publishTimeout); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	p.log.Debug("published", "type", event.Type, "id", event.ID)
	return nil
}

func waitToken(ctx context.Context, token paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return errors.New("timeout waiting for broker")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func randomSuffix() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
